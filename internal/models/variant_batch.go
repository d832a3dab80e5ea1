package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

type BatchStatus string

const (
	BatchStatusDone   BatchStatus = "done"
	BatchStatusFailed BatchStatus = "failed"
)

// VariantBatch records one generation run. Only successful runs are stored
// with their variants; a failed run keeps its error for auditing.
type VariantBatch struct {
	ID            string      `json:"id" gorm:"primaryKey;size:36"`
	Seed          string      `json:"seed" gorm:"not null;size:255"`
	StudentCount  int         `json:"student_count" gorm:"not null"`
	IncludeMaster bool        `json:"include_master" gorm:"not null"`
	Status        BatchStatus `json:"status" gorm:"not null;size:16;index"`
	Error         *string     `json:"error,omitempty" gorm:"type:text"`

	QuestionIDs      datatypes.JSON `json:"question_ids" gorm:"type:jsonb"`                // []string, authored order
	QuestionSnapshot datatypes.JSON `json:"question_snapshot,omitempty" gorm:"type:jsonb"` // []variant.Question as used
	Bundle           datatypes.JSON `json:"bundle,omitempty" gorm:"type:jsonb"`            // variant.AnswerKeyBundle

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`

	Variants []ExamVariantRecord `json:"variants,omitempty" gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}

func (VariantBatch) TableName() string {
	return "variant_batches"
}

// GetQuestionIDs decodes the authored question order.
func (b *VariantBatch) GetQuestionIDs() ([]string, error) {
	var ids []string
	if err := decodeJSON(b.QuestionIDs, &ids); err != nil {
		return nil, fmt.Errorf("batch %s: invalid question_ids: %w", b.ID, err)
	}
	return ids, nil
}

// GetQuestionSnapshot decodes the questions exactly as the batch used them.
func (b *VariantBatch) GetQuestionSnapshot() ([]variant.Question, error) {
	var qs []variant.Question
	if err := decodeJSON(b.QuestionSnapshot, &qs); err != nil {
		return nil, fmt.Errorf("batch %s: invalid question snapshot: %w", b.ID, err)
	}
	return qs, nil
}

// GetBundle decodes the stored answer key bundle.
func (b *VariantBatch) GetBundle() (variant.AnswerKeyBundle, error) {
	if len(b.Bundle) == 0 {
		return variant.AnswerKeyBundle{}, nil
	}
	return variant.UnmarshalBundle(b.Bundle)
}

// ExamVariantRecord stores one variant of a batch, codes unique per batch.
type ExamVariantRecord struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	BatchID      string         `json:"batch_id" gorm:"not null;size:36;uniqueIndex:idx_batch_code"`
	Code         string         `json:"code" gorm:"not null;size:16;uniqueIndex:idx_batch_code"`
	StudentIndex int            `json:"student_index" gorm:"not null"`
	Fingerprint  string         `json:"fingerprint" gorm:"not null;size:64"`
	Payload      datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"` // variant.ExamVariant
	CreatedAt    time.Time      `json:"created_at"`
}

func (ExamVariantRecord) TableName() string {
	return "exam_variants"
}

// NewExamVariantRecord serializes v for storage.
func NewExamVariantRecord(batchID string, v *variant.ExamVariant) (*ExamVariantRecord, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variant %s: %w", v.Code, err)
	}
	return &ExamVariantRecord{
		BatchID:      batchID,
		Code:         v.Code,
		StudentIndex: v.StudentIndex,
		Fingerprint:  v.Fingerprint,
		Payload:      datatypes.JSON(payload),
	}, nil
}

// ToVariant decodes the stored variant.
func (r *ExamVariantRecord) ToVariant() (*variant.ExamVariant, error) {
	var v variant.ExamVariant
	if err := json.Unmarshal(r.Payload, &v); err != nil {
		return nil, fmt.Errorf("failed to decode variant %s: %w", r.Code, err)
	}
	return &v, nil
}

// AllModels lists every table for migration.
func AllModels() []any {
	return []any{
		&Question{},
		&VariantBatch{},
		&ExamVariantRecord{},
	}
}
