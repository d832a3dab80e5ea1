package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

// Question is the stored form of an authored question. Choices and
// association lists are kept as JSONB.
type Question struct {
	ID   string `json:"id" gorm:"primaryKey;size:64"`
	Kind string `json:"kind" gorm:"size:32;index"`
	Body string `json:"body" gorm:"type:text;not null"`

	Choices          datatypes.JSON `json:"choices" gorm:"type:jsonb"`           // []variant.Choice
	AssociationLeft  datatypes.JSON `json:"association_left" gorm:"type:jsonb"`  // []string
	AssociationRight datatypes.JSON `json:"association_right" gorm:"type:jsonb"` // []string

	ExpectedAnswer   *string  `json:"expected_answer" gorm:"type:text"`
	NumericTolerance *float64 `json:"numeric_tolerance"`

	Explanation *string `json:"explanation" gorm:"type:text"`
	Source      *string `json:"source" gorm:"size:500"`

	CreatedBy string    `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// ToVariantQuestion converts the stored row into the engine's input type.
func (q *Question) ToVariantQuestion() (variant.Question, error) {
	out := variant.Question{
		ID:               q.ID,
		Kind:             variant.KindName(q.Kind),
		Body:             q.Body,
		NumericTolerance: q.NumericTolerance,
	}
	if q.ExpectedAnswer != nil {
		out.ExpectedAnswer = *q.ExpectedAnswer
	}
	if q.Explanation != nil {
		out.Explanation = *q.Explanation
	}
	if q.Source != nil {
		out.Source = *q.Source
	}

	if err := decodeJSON(q.Choices, &out.Choices); err != nil {
		return out, fmt.Errorf("question %s: invalid choices: %w", q.ID, err)
	}
	if err := decodeJSON(q.AssociationLeft, &out.AssociationLeft); err != nil {
		return out, fmt.Errorf("question %s: invalid association_left: %w", q.ID, err)
	}
	if err := decodeJSON(q.AssociationRight, &out.AssociationRight); err != nil {
		return out, fmt.Errorf("question %s: invalid association_right: %w", q.ID, err)
	}
	return out, nil
}

// NewQuestionFromVariant builds the stored row for an authored question.
func NewQuestionFromVariant(v variant.Question, createdBy string) (*Question, error) {
	q := &Question{
		ID:               v.ID,
		Kind:             string(v.Kind),
		Body:             v.Body,
		NumericTolerance: v.NumericTolerance,
		ExpectedAnswer:   optional(v.ExpectedAnswer),
		Explanation:      optional(v.Explanation),
		Source:           optional(v.Source),
		CreatedBy:        createdBy,
	}

	var err error
	if q.Choices, err = encodeJSON(v.Choices); err != nil {
		return nil, fmt.Errorf("failed to marshal choices: %w", err)
	}
	if q.AssociationLeft, err = encodeJSON(v.AssociationLeft); err != nil {
		return nil, fmt.Errorf("failed to marshal association_left: %w", err)
	}
	if q.AssociationRight, err = encodeJSON(v.AssociationRight); err != nil {
		return nil, fmt.Errorf("failed to marshal association_right: %w", err)
	}
	return q, nil
}

func decodeJSON(raw datatypes.JSON, dest any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func encodeJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
