package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Product is the formulated good that closes a batch's lineage. BatchCode is
// the key that links it to its collection, processing and testing history.
type Product struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProductName       string         `gorm:"not null;column:product_name" json:"product_name"`
	BatchCode         string         `gorm:"not null;uniqueIndex;column:batch_code" json:"batch_code"`
	SpeciesName       string         `gorm:"column:species_name" json:"species_name"`
	Manufacturer      string         `gorm:"column:manufacturer" json:"manufacturer"`
	ManufacturingDate time.Time      `gorm:"column:manufacturing_date" json:"manufacturing_date"`
	ExpiryDate        time.Time      `gorm:"column:expiry_date" json:"expiry_date"`
	FinalQuantityKG   float64        `gorm:"column:final_quantity_kg" json:"final_quantity_kg"`
	Certifications    datatypes.JSON `gorm:"type:jsonb;column:certifications" json:"certifications"`
	TraceCode         string         `gorm:"column:trace_code" json:"trace_code"`
	TraceImage        string         `gorm:"type:text;column:trace_image" json:"trace_image"`
	ContentHash       string         `gorm:"not null;column:content_hash;index" json:"content_hash"`
	CreatedAt         time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Product) TableName() string {
	return "product"
}

func (p *Product) SubjectKey() string {
	return p.BatchCode
}

func (p *Product) CanonicalFields() map[string]any {
	return map[string]any{
		"id":                 p.ID.String(),
		"product_name":       p.ProductName,
		"batch_code":         p.BatchCode,
		"species_name":       p.SpeciesName,
		"manufacturer":       p.Manufacturer,
		"manufacturing_date": p.ManufacturingDate,
		"expiry_date":        p.ExpiryDate,
		"final_quantity_kg":  p.FinalQuantityKG,
		"certifications":     string(p.Certifications),
		"trace_code":         p.TraceCode,
		"trace_image":        p.TraceImage,
		"created_at":         p.CreatedAt,
	}
}
