package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

// RepositorySource serves batch questions from the question repository
type RepositorySource struct {
	repo repositories.Repository
}

func NewRepositorySource(repo repositories.Repository) *RepositorySource {
	return &RepositorySource{repo: repo}
}

func (s *RepositorySource) FetchQuestions(ctx context.Context, ids []string) ([]variant.Question, error) {
	rows, err := s.repo.Question().GetByIDs(ctx, nil, ids)
	if err != nil {
		var nf *repositories.NotFoundError
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: %s", variant.ErrQuestionNotFound, strings.Join(nf.IDs, ", "))
		}
		return nil, fmt.Errorf("failed to fetch questions: %w", err)
	}

	out := make([]variant.Question, len(rows))
	for i, row := range rows {
		if out[i], err = row.ToVariantQuestion(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

var _ variant.QuestionSource = (*RepositorySource)(nil)
