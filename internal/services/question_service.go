package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-variant-service/internal/models"
	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
	"github.com/SAP-F-2025/exam-variant-service/internal/validator"
	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, user *models.User) (*QuestionResponse, error) {
	s.logger.Info("Creating question", "creator_id", user.ID, "question_id", req.ID, "kind", req.Kind)

	if errs := s.validator.GetBusinessValidator().ValidateQuestionCreate(req); len(errs) > 0 {
		return nil, errs
	}
	if !user.CanManageVariants() {
		return nil, NewPermissionError(user.ID, req.ID, "question", "create", "insufficient role permissions")
	}

	row, err := models.NewQuestionFromVariant(req.ToQuestion(), user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Question().Create(ctx, nil, row); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrQuestionAlreadyExists, req.ID)
		}
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created", "question_id", row.ID)
	return toQuestionResponse(row)
}

// Import stores a whole question file in one transaction. Every question is
// checked first so a file is either fully stored or not at all.
func (s *questionService) Import(ctx context.Context, questions []variant.Question, user *models.User) (*ImportQuestionsResponse, error) {
	if !user.CanManageVariants() {
		return nil, NewPermissionError(user.ID, "", "question", "import", "insufficient role permissions")
	}
	if len(questions) == 0 {
		return nil, NewValidationError("questions", "must contain at least one question", 0)
	}

	bv := s.validator.GetBusinessValidator()
	var errs ValidationErrors
	rows := make([]*models.Question, 0, len(questions))
	ids := make([]string, 0, len(questions))
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			errs = append(errs, ValidationError{Field: "id", Message: "appears more than once", Value: q.ID, Rule: "unique"})
			continue
		}
		seen[q.ID] = true
		errs = append(errs, bv.ValidateQuestion(q)...)

		row, err := models.NewQuestionFromVariant(q, user.ID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
		ids = append(ids, q.ID)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		return tx.Question().CreateBatch(ctx, nil, rows)
	})
	if err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", ErrQuestionAlreadyExists, err)
		}
		return nil, fmt.Errorf("failed to import questions: %w", err)
	}

	s.logger.Info("Questions imported", "creator_id", user.ID, "count", len(rows))
	return &ImportQuestionsResponse{Imported: len(rows), IDs: ids}, nil
}

func (s *questionService) GetByID(ctx context.Context, id string, user *models.User) (*QuestionResponse, error) {
	if !user.CanManageVariants() {
		return nil, NewPermissionError(user.ID, id, "question", "read", "insufficient role permissions")
	}

	row, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return toQuestionResponse(row)
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters, user *models.User) (*QuestionListResponse, error) {
	if !user.CanManageVariants() {
		return nil, NewPermissionError(user.ID, "", "question", "list", "insufficient role permissions")
	}
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	rows, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	resp := &QuestionListResponse{
		Questions: make([]*QuestionResponse, 0, len(rows)),
		Total:     total,
		Page:      filters.Offset/filters.Limit + 1,
		Size:      filters.Limit,
	}
	for _, row := range rows {
		q, err := toQuestionResponse(row)
		if err != nil {
			return nil, err
		}
		resp.Questions = append(resp.Questions, q)
	}
	return resp, nil
}

func (s *questionService) Delete(ctx context.Context, id string, user *models.User) error {
	row, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return fmt.Errorf("%w: %s", ErrQuestionNotFound, id)
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if user.Role != models.RoleAdmin && row.CreatedBy != user.ID {
		return NewPermissionError(user.ID, id, "question", "delete", "question belongs to another user")
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	s.logger.Info("Question deleted", "question_id", id, "user_id", user.ID)
	return nil
}

func toQuestionResponse(row *models.Question) (*QuestionResponse, error) {
	q, err := row.ToVariantQuestion()
	if err != nil {
		return nil, err
	}
	return &QuestionResponse{
		Question:     q,
		InferredKind: variant.Classify(q).Name(),
		CreatedBy:    row.CreatedBy,
		CreatedAt:    row.CreatedAt,
	}, nil
}
