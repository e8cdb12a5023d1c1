package geofence

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateInsideRegion(t *testing.T) {
	policy := DefaultPolicy()
	if err := policy.Validate("Ashwagandha", 20.0, 78.0); err != nil {
		t.Fatalf("expected acceptance, got %v", err)
	}
}

func TestValidateExactBoundaryIsAccepted(t *testing.T) {
	policy := NewPolicy(map[string][]Region{
		"Ashwagandha": {{MinLat: 15.0, MaxLat: 30.0, MinLng: 70.0, MaxLng: 85.0}},
	})
	corners := [][2]float64{
		{15.0, 70.0}, {15.0, 85.0}, {30.0, 70.0}, {30.0, 85.0},
	}
	for _, c := range corners {
		if err := policy.Validate("Ashwagandha", c[0], c[1]); err != nil {
			t.Fatalf("corner (%v, %v) rejected: %v", c[0], c[1], err)
		}
	}
}

func TestValidateJustOutsideIsRejectedNamingSpecies(t *testing.T) {
	policy := NewPolicy(map[string][]Region{
		"Ashwagandha": {{MinLat: 15.0, MaxLat: 30.0, MinLng: 70.0, MaxLng: 85.0}},
	})
	err := policy.Validate("Ashwagandha", 31.0, 78.0)
	if err == nil {
		t.Fatalf("expected rejection one unit outside the region")
	}
	var rejection *RejectionError
	if !errors.As(err, &rejection) {
		t.Fatalf("expected *RejectionError, got %T", err)
	}
	if !strings.Contains(err.Error(), "Ashwagandha") {
		t.Fatalf("rejection reason does not name the species: %q", err.Error())
	}
}

func TestUnconfiguredSpeciesIsUnrestricted(t *testing.T) {
	policy := DefaultPolicy()
	if err := policy.Validate("Brahmi", -89.9, 179.9); err != nil {
		t.Fatalf("unconfigured species should always be accepted, got %v", err)
	}
}

func TestAnyOfSeveralRegionsAdmits(t *testing.T) {
	policy := NewPolicy(map[string][]Region{
		"Tulsi": {
			{MinLat: 0, MaxLat: 1, MinLng: 0, MaxLng: 1},
			{MinLat: 10, MaxLat: 11, MinLng: 10, MaxLng: 11},
		},
	})
	if err := policy.Validate("Tulsi", 10.5, 10.5); err != nil {
		t.Fatalf("point inside second region rejected: %v", err)
	}
	if err := policy.Validate("Tulsi", 5, 5); err == nil {
		t.Fatalf("point outside both regions accepted")
	}
}

func TestLoadPolicyFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regions.yaml")
	content := `
Turmeric:
  - name: test-zone
    min_lat: 8.0
    max_lat: 22.0
    min_lng: 75.0
    max_lng: 88.0
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	policy, err := LoadPolicy(path, nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := policy.Validate("Turmeric", 10.0, 80.0); err != nil {
		t.Fatalf("expected acceptance inside loaded region, got %v", err)
	}
	if err := policy.Validate("Turmeric", 23.0, 80.0); err == nil {
		t.Fatalf("expected rejection outside loaded region")
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := LoadPolicy("/does/not/exist.yaml", nil); err == nil {
		t.Fatalf("expected error for missing region table")
	}
}
