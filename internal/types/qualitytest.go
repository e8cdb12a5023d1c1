package types

import (
	"time"

	"github.com/google/uuid"
)

type QualityTest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BatchCode   string    `gorm:"not null;index;column:batch_code" json:"batch_code"`
	LabID       string    `gorm:"not null;column:lab_id" json:"lab_id"`
	LabName     string    `gorm:"column:lab_name" json:"lab_name"`
	TestType    string    `gorm:"not null;column:test_type" json:"test_type"`
	TestResult  string    `gorm:"column:test_result" json:"test_result"`
	PassFail    string    `gorm:"column:pass_fail" json:"pass_fail"`
	TestedBy    string    `gorm:"column:tested_by" json:"tested_by"`
	ContentHash string    `gorm:"not null;column:content_hash;index" json:"content_hash"`
	CreatedAt   time.Time `gorm:"not null;index" json:"created_at"`
}

func (QualityTest) TableName() string {
	return "quality_test"
}

func (q *QualityTest) SubjectKey() string {
	return q.BatchCode
}

func (q *QualityTest) CanonicalFields() map[string]any {
	return map[string]any{
		"id":          q.ID.String(),
		"batch_code":  q.BatchCode,
		"lab_id":      q.LabID,
		"lab_name":    q.LabName,
		"test_type":   q.TestType,
		"test_result": q.TestResult,
		"pass_fail":   q.PassFail,
		"tested_by":   q.TestedBy,
		"created_at":  q.CreatedAt,
	}
}
