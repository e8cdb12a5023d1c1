package types

import (
	"time"

	"github.com/google/uuid"
)

type ProcessingStep struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BatchCode        string    `gorm:"not null;index;column:batch_code" json:"batch_code"`
	FacilityID       string    `gorm:"not null;column:facility_id" json:"facility_id"`
	FacilityName     string    `gorm:"column:facility_name" json:"facility_name"`
	ProcessType      string    `gorm:"not null;column:process_type" json:"process_type"`
	EquipmentUsed    string    `gorm:"column:equipment_used" json:"equipment_used"`
	OperatorName     string    `gorm:"column:operator_name" json:"operator_name"`
	OutputQuantityKG float64   `gorm:"column:output_quantity_kg" json:"output_quantity_kg"`
	ContentHash      string    `gorm:"not null;column:content_hash;index" json:"content_hash"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
}

func (ProcessingStep) TableName() string {
	return "processing_step"
}

func (s *ProcessingStep) SubjectKey() string {
	return s.BatchCode
}

func (s *ProcessingStep) CanonicalFields() map[string]any {
	return map[string]any{
		"id":                 s.ID.String(),
		"batch_code":         s.BatchCode,
		"facility_id":        s.FacilityID,
		"facility_name":      s.FacilityName,
		"process_type":       s.ProcessType,
		"equipment_used":     s.EquipmentUsed,
		"operator_name":      s.OperatorName,
		"output_quantity_kg": s.OutputQuantityKG,
		"created_at":         s.CreatedAt,
	}
}
