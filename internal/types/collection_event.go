package types

import (
	"time"

	"github.com/google/uuid"
)

// CollectionEvent records one harvest of raw material against a batch.
// Records are immutable once created; ContentHash covers every other field.
type CollectionEvent struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BatchCode         string    `gorm:"not null;index;column:batch_code" json:"batch_code"`
	CollectorID       string    `gorm:"not null;column:collector_id" json:"collector_id"`
	CollectorName     string    `gorm:"column:collector_name" json:"collector_name"`
	SpeciesName       string    `gorm:"not null;column:species_name" json:"species_name"`
	Latitude          float64   `gorm:"column:latitude" json:"latitude"`
	Longitude         float64   `gorm:"column:longitude" json:"longitude"`
	LocationName      string    `gorm:"column:location_name" json:"location_name"`
	HarvestDate       time.Time `gorm:"column:harvest_date" json:"harvest_date"`
	QuantityKG        float64   `gorm:"column:quantity_kg" json:"quantity_kg"`
	QualityGrade      string    `gorm:"column:quality_grade" json:"quality_grade"`
	WeatherConditions string    `gorm:"column:weather_conditions" json:"weather_conditions"`
	ContentHash       string    `gorm:"not null;column:content_hash;index" json:"content_hash"`
	CreatedAt         time.Time `gorm:"not null;index" json:"created_at"`
}

func (CollectionEvent) TableName() string {
	return "collection_event"
}

func (e *CollectionEvent) SubjectKey() string {
	return e.BatchCode
}

func (e *CollectionEvent) CanonicalFields() map[string]any {
	return map[string]any{
		"id":                 e.ID.String(),
		"batch_code":         e.BatchCode,
		"collector_id":       e.CollectorID,
		"collector_name":     e.CollectorName,
		"species_name":       e.SpeciesName,
		"latitude":           e.Latitude,
		"longitude":          e.Longitude,
		"location_name":      e.LocationName,
		"harvest_date":       e.HarvestDate,
		"quantity_kg":        e.QuantityKG,
		"quality_grade":      e.QualityGrade,
		"weather_conditions": e.WeatherConditions,
		"created_at":         e.CreatedAt,
	}
}
