// Package geofence admits or rejects collection events based on where a
// species was harvested. Species with no configured region are unrestricted;
// that default is deliberate and logged at load time so it stays auditable.
package geofence

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/herbtrace/herbtrace-backend/internal/logger"
)

// Region is an approved harvest area as a simple bounding box. Boundaries are
// inclusive: a point exactly on the edge is inside.
type Region struct {
	Name   string  `yaml:"name"`
	MinLat float64 `yaml:"min_lat"`
	MaxLat float64 `yaml:"max_lat"`
	MinLng float64 `yaml:"min_lng"`
	MaxLng float64 `yaml:"max_lng"`
}

func (r Region) contains(lat, lng float64) bool {
	return lat >= r.MinLat && lat <= r.MaxLat && lng >= r.MinLng && lng <= r.MaxLng
}

// RejectionError names the species and states that the coordinates fall
// outside every approved region for it. The message is surfaced verbatim to
// the caller so geofence rejections stay distinguishable from other failures.
type RejectionError struct {
	Species   string
	Latitude  float64
	Longitude float64
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("collection of %s at (%.6f, %.6f) falls outside every approved region for %s",
		e.Species, e.Latitude, e.Longitude, e.Species)
}

type Policy struct {
	zones map[string][]Region
}

func NewPolicy(zones map[string][]Region) *Policy {
	if zones == nil {
		zones = map[string][]Region{}
	}
	return &Policy{zones: zones}
}

// DefaultPolicy carries the built-in approved zones used when no region table
// file is configured.
func DefaultPolicy() *Policy {
	return NewPolicy(map[string][]Region{
		"Ashwagandha": {{Name: "central-india", MinLat: 15.0, MaxLat: 30.0, MinLng: 70.0, MaxLng: 85.0}},
		"Turmeric":    {{Name: "southern-india", MinLat: 8.0, MaxLat: 22.0, MinLng: 75.0, MaxLng: 88.0}},
		"Tulsi":       {{Name: "northern-india", MinLat: 20.0, MaxLat: 32.0, MinLng: 72.0, MaxLng: 84.0}},
	})
}

// LoadPolicy reads a species -> regions table from a YAML file.
func LoadPolicy(path string, log *logger.Logger) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geofence: reading region table %q: %w", path, err)
	}
	var zones map[string][]Region
	if err := yaml.Unmarshal(raw, &zones); err != nil {
		return nil, fmt.Errorf("geofence: parsing region table %q: %w", path, err)
	}
	if log != nil {
		log.Info("Geofence region table loaded", "path", path, "species", len(zones))
	}
	return NewPolicy(zones), nil
}

// Validate returns nil when the coordinates are admissible for the species
// and a *RejectionError when they fall outside every approved region. A
// species with no configured region is unrestricted.
func (p *Policy) Validate(speciesName string, latitude, longitude float64) error {
	regions, ok := p.zones[speciesName]
	if !ok || len(regions) == 0 {
		return nil
	}
	for _, region := range regions {
		if region.contains(latitude, longitude) {
			return nil
		}
	}
	return &RejectionError{Species: speciesName, Latitude: latitude, Longitude: longitude}
}
