package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/SAP-F-2025/exam-variant-service/internal/cache"
	"github.com/SAP-F-2025/exam-variant-service/internal/events"
	"github.com/SAP-F-2025/exam-variant-service/internal/export"
	"github.com/SAP-F-2025/exam-variant-service/internal/models"
	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
	"github.com/SAP-F-2025/exam-variant-service/internal/validator"
	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

// VariantServiceConfig tunes batch generation
type VariantServiceConfig struct {
	Engine         variant.Config
	BundleCacheTTL time.Duration
}

type variantService struct {
	repo      repositories.Repository
	cache     *cache.CacheManager
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
	config    VariantServiceConfig
}

func NewVariantService(
	repo repositories.Repository,
	cacheManager *cache.CacheManager,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
	config VariantServiceConfig,
) VariantService {
	if cacheManager == nil {
		cacheManager = cache.NewCacheManager(nil)
	}
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	if config.BundleCacheTTL <= 0 {
		config.BundleCacheTTL = cache.BundleCacheConfig.TTL
	}
	return &variantService{
		repo:      repo,
		cache:     cacheManager,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// ===== GENERATION =====

func (s *variantService) GenerateBatch(ctx context.Context, req *GenerateBatchRequest, user *models.User) (*BatchResponse, error) {
	if errs := s.validator.GetBusinessValidator().ValidateGenerateBatch(req); len(errs) > 0 {
		return nil, errs
	}
	if !user.CanManageVariants() {
		return nil, NewPermissionError(user.ID, "", "batch", "generate", "only teachers can generate variants")
	}

	questions, err := NewRepositorySource(s.repo).FetchQuestions(ctx, req.QuestionIDs)
	if err != nil {
		if errors.Is(err, variant.ErrQuestionNotFound) {
			return nil, &BusinessRuleError{
				Rule:    "questions_exist",
				Message: err.Error(),
				Context: map[string]any{"question_ids": req.QuestionIDs},
				Err:     ErrQuestionNotFound,
			}
		}
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	batchID := uuid.NewString()
	logger := s.logger.With("batch_id", batchID, "user_id", user.ID)
	logger.Info("Generating variant batch",
		"questions", len(questions),
		"students", req.StudentCount,
		"include_master", req.WantsMaster())

	result, err := s.newOrchestrator(logger).GenerateBatch(ctx, questions, req.StudentCount, req.Seed, req.WantsMaster())
	if err != nil {
		s.recordFailure(ctx, logger, batchID, req, user, err)
		return nil, translateBatchError(err)
	}

	batch, err := s.buildBatchModel(batchID, req, questions, result, user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Batch().Create(ctx, nil, batch); err != nil {
		return nil, fmt.Errorf("failed to store batch: %w", err)
	}

	if data, err := variant.MarshalBundle(result.Bundle); err == nil {
		if err := s.cache.Bundle.SetBytes(ctx, batchID, data, s.config.BundleCacheTTL); err != nil {
			logger.Warn("Failed to cache answer key bundle", "error", err)
		}
	}

	s.publish(ctx, logger, events.NewEvent(events.BatchGenerated, events.BatchGeneratedData{
		BatchID:       batchID,
		Seed:          req.Seed,
		StudentCount:  req.StudentCount,
		IncludeMaster: req.WantsMaster(),
		QuestionCount: len(questions),
		Codes:         result.Bundle.Codes(),
		GeneratedBy:   user.ID,
	}))

	logger.Info("Variant batch stored", "variants", len(result.Variants))
	resp := toBatchResponse(batch)
	resp.Codes = result.Bundle.Codes()
	return resp, nil
}

// ReplayBatch regenerates a stored batch and compares it with the bundle
func (s *variantService) ReplayBatch(ctx context.Context, batchID string, user *models.User) error {
	batch, err := s.loadBatch(ctx, batchID, user, "replay")
	if err != nil {
		return err
	}
	if batch.Status != models.BatchStatusDone {
		return NewBusinessRuleError("batch_done", "only completed batches can be replayed", map[string]any{"status": batch.Status})
	}

	questions, err := batch.GetQuestionSnapshot()
	if err != nil {
		return err
	}
	stored, err := batch.GetBundle()
	if err != nil {
		return err
	}

	logger := s.logger.With("batch_id", batchID, "user_id", user.ID)
	result, err := s.newOrchestrator(logger).GenerateBatch(ctx, questions, batch.StudentCount, batch.Seed, batch.IncludeMaster)
	if err != nil {
		return translateBatchError(err)
	}
	if err := stored.Verify(result.Variants); err != nil {
		logger.Error("Replayed batch differs from stored bundle", "error", err)
		return fmt.Errorf("%w: %v", ErrFingerprintMismatch, err)
	}

	logger.Info("Batch replay matches stored bundle", "variants", len(result.Variants))
	return nil
}

// ===== QUERIES =====

func (s *variantService) GetBatch(ctx context.Context, batchID string, user *models.User) (*BatchResponse, error) {
	batch, err := s.loadBatch(ctx, batchID, user, "read")
	if err != nil {
		return nil, err
	}

	resp := toBatchResponse(batch)
	if batch.Status == models.BatchStatusDone {
		bundle, err := batch.GetBundle()
		if err != nil {
			return nil, err
		}
		resp.Codes = bundle.Codes()
	}
	return resp, nil
}

func (s *variantService) ListBatches(ctx context.Context, filters repositories.BatchFilters, user *models.User) (*BatchListResponse, error) {
	if !user.CanManageVariants() {
		return nil, NewPermissionError(user.ID, "", "batch", "list", "only teachers can list batches")
	}
	if user.Role != models.RoleAdmin {
		filters.CreatedBy = &user.ID
	}
	if filters.Limit <= 0 {
		filters.Limit = 20
	}

	batches, total, err := s.repo.Batch().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}

	resp := &BatchListResponse{
		Batches: make([]*BatchResponse, len(batches)),
		Total:   total,
		Page:    filters.Offset/filters.Limit + 1,
		Size:    filters.Limit,
	}
	for i, b := range batches {
		resp.Batches[i] = toBatchResponse(b)
	}
	return resp, nil
}

func (s *variantService) ListVariants(ctx context.Context, batchID string, user *models.User) ([]VariantSummary, error) {
	if _, err := s.loadBatch(ctx, batchID, user, "read"); err != nil {
		return nil, err
	}

	records, err := s.repo.Batch().ListVariants(ctx, nil, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}

	out := make([]VariantSummary, len(records))
	for i, r := range records {
		out[i] = VariantSummary{Code: r.Code, StudentIndex: r.StudentIndex, Fingerprint: r.Fingerprint}
	}
	return out, nil
}

func (s *variantService) GetAnswerKeyBundle(ctx context.Context, batchID string, user *models.User) ([]byte, error) {
	batch, err := s.loadBatch(ctx, batchID, user, "read answer keys of")
	if err != nil {
		return nil, err
	}

	data, err := s.cache.Bundle.GetBytes(ctx, batchID)
	if err == nil {
		return data, nil
	}

	bundle, err := s.bundleOf(batch)
	if err != nil {
		return nil, err
	}
	// Re-encode instead of serving the jsonb column, which does not keep
	// the original byte layout.
	data, err = variant.MarshalBundle(bundle)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Bundle.SetBytes(ctx, batchID, data, s.config.BundleCacheTTL); err != nil {
		s.logger.Warn("Failed to cache answer key bundle", "batch_id", batchID, "error", err)
	}
	return data, nil
}

func (s *variantService) ExportAnswerKeys(ctx context.Context, batchID string, user *models.User) ([]byte, error) {
	batch, err := s.loadBatch(ctx, batchID, user, "export answer keys of")
	if err != nil {
		return nil, err
	}
	bundle, err := s.bundleOf(batch)
	if err != nil {
		return nil, err
	}

	var master *variant.ExamVariant
	if batch.IncludeMaster {
		if master, err = s.loadVariant(ctx, batchID, variant.MasterCode); err != nil {
			return nil, err
		}
	}
	return export.AnswerKeysWorkbook(bundle, master)
}

func (s *variantService) GetMasterVariant(ctx context.Context, batchID string, user *models.User) (*variant.ExamVariant, error) {
	batch, err := s.loadBatch(ctx, batchID, user, "read")
	if err != nil {
		return nil, err
	}
	if !batch.IncludeMaster {
		return nil, fmt.Errorf("%w: batch %s has no master copy", ErrVariantNotFound, batchID)
	}
	return s.loadVariant(ctx, batchID, variant.MasterCode)
}

func (s *variantService) GetStudentVariant(ctx context.Context, batchID, code string, user *models.User) (*variant.ExamVariant, error) {
	if code == variant.MasterCode {
		return nil, NewValidationError("code", "the master copy is not a student variant", code)
	}
	if _, err := s.loadBatch(ctx, batchID, user, "read"); err != nil {
		return nil, err
	}
	v, err := s.loadVariant(ctx, batchID, code)
	if err != nil {
		return nil, err
	}
	return v.StudentView(), nil
}

// ===== VERIFICATION =====

func (s *variantService) VerifyVariant(ctx context.Context, batchID string, req *VerifyVariantRequest, user *models.User) (*VerifyVariantResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	batch, err := s.loadBatch(ctx, batchID, user, "verify")
	if err != nil {
		return nil, err
	}
	bundle, err := s.bundleOf(batch)
	if err != nil {
		return nil, err
	}
	v, err := s.loadVariant(ctx, batchID, req.Code)
	if err != nil {
		return nil, err
	}

	resp := &VerifyVariantResponse{BatchID: batchID, Code: req.Code, Match: true}
	resp.Fingerprint, err = variant.Fingerprint(v)
	if err != nil {
		return nil, err
	}

	switch entry, ok := bundle[req.Code]; {
	case v.Fingerprint != resp.Fingerprint:
		resp.Match, resp.Reason = false, "stored variant content changed since generation"
	case !ok:
		resp.Match, resp.Reason = false, "code missing from answer key bundle"
	case entry.Fingerprint != resp.Fingerprint:
		resp.Match, resp.Reason = false, "answer key bundle disagrees with variant"
	case req.Fingerprint != "" && req.Fingerprint != resp.Fingerprint:
		resp.Match, resp.Reason = false, "printed fingerprint does not match"
	}

	s.publish(ctx, s.logger, events.NewEvent(events.VariantVerified, events.VariantVerifiedData{
		BatchID:     batchID,
		Code:        req.Code,
		Fingerprint: resp.Fingerprint,
		Match:       resp.Match,
	}))
	return resp, nil
}

// ===== HELPERS =====

func (s *variantService) newOrchestrator(logger *slog.Logger) *variant.Orchestrator {
	cfg := s.config.Engine
	cfg.Logger = logger
	cfg.OnStateChange = func(state variant.BatchState, err error) {
		if err == nil {
			logger.Debug("Batch state changed", "state", state)
		}
	}
	return variant.NewOrchestrator(cfg)
}

func (s *variantService) loadBatch(ctx context.Context, batchID string, user *models.User, action string) (*models.VariantBatch, error) {
	if !user.CanManageVariants() {
		return nil, NewPermissionError(user.ID, batchID, "batch", action, "only teachers can access batches")
	}

	batch, err := s.repo.Batch().GetByID(ctx, nil, batchID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	if user.Role != models.RoleAdmin && batch.CreatedBy != user.ID {
		return nil, NewPermissionError(user.ID, batchID, "batch", action, "batch belongs to another user")
	}
	return batch, nil
}

func (s *variantService) bundleOf(batch *models.VariantBatch) (variant.AnswerKeyBundle, error) {
	if batch.Status != models.BatchStatusDone {
		return nil, NewBusinessRuleError("batch_done", "batch has no answer keys", map[string]any{"status": batch.Status})
	}
	return batch.GetBundle()
}

func (s *variantService) loadVariant(ctx context.Context, batchID, code string) (*variant.ExamVariant, error) {
	record, err := s.repo.Batch().GetVariant(ctx, nil, batchID, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, code)
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	return record.ToVariant()
}

func (s *variantService) buildBatchModel(batchID string, req *GenerateBatchRequest, questions []variant.Question, result *variant.BatchResult, user *models.User) (*models.VariantBatch, error) {
	bundle, err := variant.MarshalBundle(result.Bundle)
	if err != nil {
		return nil, err
	}
	snapshot, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question snapshot: %w", err)
	}
	ids, err := json.Marshal(req.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question ids: %w", err)
	}

	batch := &models.VariantBatch{
		ID:               batchID,
		Seed:             req.Seed,
		StudentCount:     req.StudentCount,
		IncludeMaster:    req.WantsMaster(),
		Status:           models.BatchStatusDone,
		QuestionIDs:      datatypes.JSON(ids),
		QuestionSnapshot: datatypes.JSON(snapshot),
		Bundle:           datatypes.JSON(bundle),
		CreatedBy:        user.ID,
		Variants:         make([]models.ExamVariantRecord, 0, len(result.Variants)),
	}
	for _, v := range result.Variants {
		record, err := models.NewExamVariantRecord(batchID, v)
		if err != nil {
			return nil, err
		}
		batch.Variants = append(batch.Variants, *record)
	}
	return batch, nil
}

// recordFailure stores the failed run and announces it. It runs even when
// ctx was cancelled.
func (s *variantService) recordFailure(ctx context.Context, logger *slog.Logger, batchID string, req *GenerateBatchRequest, user *models.User, cause error) {
	ctx = context.WithoutCancel(ctx)
	logger.Error("Variant batch failed", "error", cause)

	var stage variant.BatchState
	var questionID string
	var be *variant.BatchError
	if errors.As(cause, &be) {
		stage, questionID = be.Stage, be.QuestionID
	}

	msg := cause.Error()
	ids, _ := json.Marshal(req.QuestionIDs)
	batch := &models.VariantBatch{
		ID:            batchID,
		Seed:          req.Seed,
		StudentCount:  req.StudentCount,
		IncludeMaster: req.WantsMaster(),
		Status:        models.BatchStatusFailed,
		Error:         &msg,
		QuestionIDs:   datatypes.JSON(ids),
		CreatedBy:     user.ID,
	}
	if err := s.repo.Batch().Create(ctx, nil, batch); err != nil {
		logger.Error("Failed to record failed batch", "error", err)
	}

	s.publish(ctx, logger, events.NewEvent(events.BatchFailed, events.BatchFailedData{
		Seed:         req.Seed,
		StudentCount: req.StudentCount,
		Stage:        string(stage),
		QuestionID:   questionID,
		Error:        msg,
		RequestedBy:  user.ID,
	}))
}

func (s *variantService) publish(ctx context.Context, logger *slog.Logger, event *events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

// translateBatchError maps engine failures onto service error types
func translateBatchError(err error) error {
	var be *variant.BatchError
	ctxInfo := map[string]any{}
	if errors.As(err, &be) {
		ctxInfo["stage"] = be.Stage
		if be.QuestionID != "" {
			ctxInfo["question_id"] = be.QuestionID
		}
		if be.StudentIndex >= 0 {
			ctxInfo["student_index"] = be.StudentIndex
		}
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case variant.IsInputError(err):
		return NewValidationError("question_ids", err.Error(), nil)
	case variant.IsStructuralError(err):
		return &BusinessRuleError{Rule: "question_structure", Message: err.Error(), Context: ctxInfo, Err: err}
	case errors.Is(err, variant.ErrCodeSpaceExhausted):
		return &BusinessRuleError{Rule: "code_space", Message: err.Error(), Context: ctxInfo, Err: err}
	}
	return fmt.Errorf("%w: %w", ErrBatchFailed, err)
}

func toBatchResponse(b *models.VariantBatch) *BatchResponse {
	ids, _ := b.GetQuestionIDs()
	return &BatchResponse{
		ID:            b.ID,
		Seed:          b.Seed,
		StudentCount:  b.StudentCount,
		IncludeMaster: b.IncludeMaster,
		Status:        b.Status,
		Error:         b.Error,
		QuestionIDs:   ids,
		CreatedBy:     b.CreatedBy,
		CreatedAt:     b.CreatedAt,
	}
}
