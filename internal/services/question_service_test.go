package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
	"github.com/SAP-F-2025/exam-variant-service/internal/validator"
	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

func newQuestionTestService() (QuestionService, *mockRepository) {
	repo := newMockRepository()
	return NewQuestionService(repo, testLogger(), validator.New()), repo
}

func TestQuestionService_Create(t *testing.T) {
	svc, repo := newQuestionTestService()
	ctx := context.Background()

	req := &CreateQuestionRequest{
		ID:   "capital-fr",
		Body: "Capital of France",
		Choices: []validator.ChoiceRequest{
			{Text: "Paris", IsCorrect: true},
			{Text: "Lyon"},
			{Text: "Nice"},
		},
	}

	resp, err := svc.Create(ctx, req, teacher)
	require.NoError(t, err)
	assert.Equal(t, "capital-fr", resp.ID)
	assert.Equal(t, variant.KindSingleChoice, resp.InferredKind)
	assert.Equal(t, teacher.ID, resp.CreatedBy)
	assert.Contains(t, repo.question.rows, "capital-fr")

	_, err = svc.Create(ctx, req, teacher)
	assert.ErrorIs(t, err, ErrQuestionAlreadyExists)

	_, err = svc.Create(ctx, &CreateQuestionRequest{ID: "x", Body: "y"}, student)
	var pe *PermissionError
	assert.True(t, errors.As(err, &pe))
}

func TestQuestionService_CreateRejectsBrokenStructure(t *testing.T) {
	svc, repo := newQuestionTestService()

	_, err := svc.Create(context.Background(), &CreateQuestionRequest{
		ID:               "match",
		Body:             "Pair them",
		AssociationLeft:  []string{"a", "b", "c"},
		AssociationRight: []string{"1", "2"},
	}, teacher)

	var ve ValidationErrors
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "association_right", ve[0].Field)
	assert.Empty(t, repo.question.rows)
}

func TestQuestionService_ImportIsAllOrNothing(t *testing.T) {
	svc, repo := newQuestionTestService()
	ctx := context.Background()

	questions := examQuestions()
	questions = append(questions, variant.Question{
		ID:      "none-correct",
		Body:    "No answer",
		Choices: []variant.Choice{{Text: "a"}, {Text: "b"}, {Text: "c"}},
	})

	_, err := svc.Import(ctx, questions, teacher)
	var ve ValidationErrors
	require.True(t, errors.As(err, &ve))
	assert.Empty(t, repo.question.rows)

	resp, err := svc.Import(ctx, examQuestions(), teacher)
	require.NoError(t, err)
	assert.Equal(t, 6, resp.Imported)
	assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5", "q6"}, resp.IDs)

	_, err = svc.Import(ctx, examQuestions()[:1], teacher)
	assert.ErrorIs(t, err, ErrQuestionAlreadyExists)

	dup := []variant.Question{examQuestions()[0], examQuestions()[0]}
	dup[0].ID, dup[1].ID = "same", "same"
	_, err = svc.Import(ctx, dup, teacher)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "unique", ve[0].Rule)
}

func TestQuestionService_GetListDelete(t *testing.T) {
	svc, _ := newQuestionTestService()
	ctx := context.Background()

	_, err := svc.Import(ctx, examQuestions(), teacher)
	require.NoError(t, err)

	q, err := svc.GetByID(ctx, "q5", teacher)
	require.NoError(t, err)
	assert.Equal(t, variant.KindNumeric, q.InferredKind)

	_, err = svc.GetByID(ctx, "missing", teacher)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	list, err := svc.List(ctx, repositories.QuestionFilters{}, teacher)
	require.NoError(t, err)
	assert.EqualValues(t, 6, list.Total)
	assert.Equal(t, 50, list.Size)

	err = svc.Delete(ctx, "q1", otherTeacher)
	assert.ErrorIs(t, err, ErrInsufficientPermissions)

	require.NoError(t, svc.Delete(ctx, "q1", teacher))
	require.NoError(t, svc.Delete(ctx, "q2", admin))

	_, err = svc.GetByID(ctx, "q1", teacher)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}
