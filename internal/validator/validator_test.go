package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

func boolPtr(b bool) *bool { return &b }

func fields(errs ValidationErrors) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

func TestValidateGenerateBatch(t *testing.T) {
	bv := NewBusinessValidator()

	tests := []struct {
		name   string
		req    GenerateBatchRequest
		fields []string
	}{
		{
			name: "valid",
			req:  GenerateBatchRequest{QuestionIDs: []string{"q1", "q2"}, StudentCount: 30, Seed: "exam-2024"},
		},
		{
			name: "master only",
			req:  GenerateBatchRequest{QuestionIDs: []string{"q1"}, StudentCount: 0, Seed: "s"},
		},
		{
			name:   "nothing to generate",
			req:    GenerateBatchRequest{QuestionIDs: []string{"q1"}, Seed: "s", IncludeMaster: boolPtr(false)},
			fields: []string{"student_count"},
		},
		{
			name:   "missing questions",
			req:    GenerateBatchRequest{StudentCount: 1, Seed: "s"},
			fields: []string{"question_ids"},
		},
		{
			name:   "duplicate questions",
			req:    GenerateBatchRequest{QuestionIDs: []string{"q1", "q1"}, StudentCount: 1, Seed: "s"},
			fields: []string{"question_ids"},
		},
		{
			name:   "blank seed",
			req:    GenerateBatchRequest{QuestionIDs: []string{"q1"}, StudentCount: 1, Seed: "   "},
			fields: []string{"seed"},
		},
		{
			name:   "too many students",
			req:    GenerateBatchRequest{QuestionIDs: []string{"q1"}, StudentCount: variant.CodeCapacity + 1, Seed: "s"},
			fields: []string{"student_count"},
		},
		{
			name:   "negative students",
			req:    GenerateBatchRequest{QuestionIDs: []string{"q1"}, StudentCount: -1, Seed: "s"},
			fields: []string{"student_count"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := bv.ValidateGenerateBatch(&tt.req)
			if len(tt.fields) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.fields, fields(errs))
		})
	}
}

func TestValidateQuestionCreate(t *testing.T) {
	bv := NewBusinessValidator()

	valid := QuestionCreateRequest{
		ID:   "q1",
		Body: "Capital of Brazil?",
		Choices: []ChoiceRequest{
			{Text: "Rio"},
			{Text: "Brasília", IsCorrect: true},
		},
	}
	assert.Empty(t, bv.ValidateQuestionCreate(&valid))

	noCorrect := valid
	noCorrect.Choices = []ChoiceRequest{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	errs := bv.ValidateQuestionCreate(&noCorrect)
	require.Len(t, errs, 1)
	assert.Equal(t, "question_structure", errs[0].Rule)
	assert.Contains(t, errs[0].Message, variant.ErrNoCorrectAlternative.Error())

	badKind := valid
	badKind.Kind = "essay"
	assert.Equal(t, []string{"kind"}, fields(bv.ValidateQuestionCreate(&badKind)))

	badID := valid
	badID.ID = "has space"
	assert.Equal(t, []string{"id"}, fields(bv.ValidateQuestionCreate(&badID)))

	numeric := QuestionCreateRequest{ID: "n1", Kind: "numeric", Body: "2+2", ExpectedAnswer: "four"}
	errs = bv.ValidateQuestionCreate(&numeric)
	require.Len(t, errs, 1)
	assert.Equal(t, "expected_answer", errs[0].Field)

	matching := QuestionCreateRequest{
		ID:               "m1",
		Body:             "Match",
		AssociationLeft:  []string{"a", "b"},
		AssociationRight: []string{"1"},
	}
	errs = bv.ValidateQuestionCreate(&matching)
	require.Len(t, errs, 1)
	assert.Equal(t, "association_right", errs[0].Field)
}

func TestStrictMultiCorrect(t *testing.T) {
	cfg := variant.DefaultConfig()
	cfg.StrictMultiCorrect = true
	bv := NewBusinessValidatorWithConfig(cfg)

	req := QuestionCreateRequest{
		ID:      "q2",
		Body:    "Primes",
		Choices: []ChoiceRequest{{Text: "2", IsCorrect: true}, {Text: "3", IsCorrect: true}, {Text: "4"}},
	}
	assert.Len(t, bv.ValidateQuestionCreate(&req), 1)

	req.Kind = string(variant.KindMultiChoice)
	assert.Empty(t, bv.ValidateQuestionCreate(&req))
}

func TestValidatorValidateReturnsValidationErrors(t *testing.T) {
	v := New()
	err := v.Validate(&VerifyVariantRequest{Fingerprint: "xyz"})
	require.Error(t, err)

	var ve ValidationErrors
	require.True(t, errors.As(err, &ve))
	assert.ElementsMatch(t, []string{"code", "fingerprint"}, fields(ve))

	assert.NoError(t, v.Validate(&VerifyVariantRequest{Code: "A01"}))
	assert.NotNil(t, v.GetBusinessValidator())
}
