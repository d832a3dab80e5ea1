package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

// maxStudentCount matches the number of distinct student codes.
const maxStudentCount = variant.CodeCapacity

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate  *validator.Validate
	assembler *variant.Assembler
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	return NewBusinessValidatorWithConfig(variant.DefaultConfig())
}

// NewBusinessValidatorWithConfig checks questions with the structural rules
// of cfg, notably StrictMultiCorrect.
func NewBusinessValidatorWithConfig(cfg variant.Config) *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)

	bv := &BusinessValidator{
		validate:  validate,
		assembler: variant.NewAssembler(cfg),
	}
	bv.registerBusinessRules()
	return bv
}

// Validate validates struct tags for any struct
func (bv *BusinessValidator) Validate(s any) ValidationErrors {
	if err := bv.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateGenerateBatch validates a batch generation request
func (bv *BusinessValidator) ValidateGenerateBatch(req *GenerateBatchRequest) ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, bv.Validate(req)...)

	if req.StudentCount == 0 && !req.WantsMaster() {
		errs = append(errs, ValidationError{
			Field:   "student_count",
			Message: "a batch without master needs at least one student",
			Value:   req.StudentCount,
			Rule:    "business_logic",
		})
	}
	return errs
}

// ValidateQuestionCreate validates question creation business rules
func (bv *BusinessValidator) ValidateQuestionCreate(req *QuestionCreateRequest) ValidationErrors {
	var errs ValidationErrors
	errs = append(errs, bv.Validate(req)...)
	if len(errs) > 0 {
		return errs
	}
	return append(errs, bv.validateQuestionStructure(req)...)
}

// ValidateQuestion checks a question the way batch assembly will.
func (bv *BusinessValidator) ValidateQuestion(q variant.Question) ValidationErrors {
	if _, err := bv.assembler.Check(q); err != nil {
		return ValidationErrors{structuralError(q.ID, err)}
	}
	return nil
}

// ToQuestion converts a create request into the assembly model.
func (req *QuestionCreateRequest) ToQuestion() variant.Question {
	q := variant.Question{
		ID:               strings.TrimSpace(req.ID),
		Kind:             variant.KindName(req.Kind),
		Body:             req.Body,
		ExpectedAnswer:   req.ExpectedAnswer,
		NumericTolerance: req.NumericTolerance,
		AssociationLeft:  req.AssociationLeft,
		AssociationRight: req.AssociationRight,
	}
	for _, c := range req.Choices {
		q.Choices = append(q.Choices, variant.Choice{Letter: c.Letter, Text: c.Text, IsCorrect: c.IsCorrect})
	}
	if req.Explanation != nil {
		q.Explanation = *req.Explanation
	}
	if req.Source != nil {
		q.Source = *req.Source
	}
	return q
}

func (bv *BusinessValidator) validateQuestionStructure(req *QuestionCreateRequest) ValidationErrors {
	return bv.ValidateQuestion(req.ToQuestion())
}

func structuralError(questionID string, err error) ValidationError {
	field := "choices"
	switch {
	case errors.Is(err, variant.ErrInvalidAssociation):
		field = "association_right"
	case errors.Is(err, variant.ErrInvalidNumericAnswer):
		field = "expected_answer"
	}
	return ValidationError{
		Field:   field,
		Message: err.Error(),
		Value:   questionID,
		Rule:    "question_structure",
	}
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("batch_seed", func(fl validator.FieldLevel) bool {
		seed := fl.Field().String()
		return strings.TrimSpace(seed) != "" && len(seed) <= 255
	})

	bv.validate.RegisterValidation("student_count", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= 0 && n <= int64(maxStudentCount)
	})

	bv.validate.RegisterValidation("question_kind", func(fl validator.FieldLevel) bool {
		return variant.KindName(fl.Field().String()).Valid()
	})

	bv.validate.RegisterValidation("question_id", func(fl validator.FieldLevel) bool {
		id := fl.Field().String()
		return id != "" && len(id) <= 64 && !strings.ContainsAny(id, " \t\r\n")
	})
}

// String renders errors one per line, for CLI output.
func (ve ValidationErrors) String() string {
	var b strings.Builder
	for _, e := range ve {
		fmt.Fprintf(&b, "%s: %s\n", e.Field, e.Message)
	}
	return b.String()
}
