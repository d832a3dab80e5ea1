package services

import (
	"context"
	"time"

	"github.com/SAP-F-2025/exam-variant-service/internal/models"
	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
	"github.com/SAP-F-2025/exam-variant-service/internal/validator"
	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

// ===== REQUEST/RESPONSE DTOs =====

type GenerateBatchRequest = validator.GenerateBatchRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type VerifyVariantRequest = validator.VerifyVariantRequest

type BatchResponse struct {
	ID            string             `json:"id"`
	Seed          string             `json:"seed"`
	StudentCount  int                `json:"student_count"`
	IncludeMaster bool               `json:"include_master"`
	Status        models.BatchStatus `json:"status"`
	Error         *string            `json:"error,omitempty"`
	QuestionIDs   []string           `json:"question_ids"`
	Codes         []string           `json:"codes,omitempty"`
	CreatedBy     string             `json:"created_by"`
	CreatedAt     time.Time          `json:"created_at"`
}

type BatchListResponse struct {
	Batches []*BatchResponse `json:"batches"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
}

type VariantSummary struct {
	Code         string `json:"code"`
	StudentIndex int    `json:"student_index"`
	Fingerprint  string `json:"fingerprint"`
}

type VerifyVariantResponse struct {
	BatchID     string `json:"batch_id"`
	Code        string `json:"code"`
	Fingerprint string `json:"fingerprint"`
	Match       bool   `json:"match"`
	Reason      string `json:"reason,omitempty"`
}

type QuestionResponse struct {
	variant.Question
	InferredKind variant.KindName `json:"inferred_kind"`
	CreatedBy    string           `json:"created_by"`
	CreatedAt    time.Time        `json:"created_at"`
}

type QuestionListResponse struct {
	Questions []*QuestionResponse `json:"questions"`
	Total     int64               `json:"total"`
	Page      int                 `json:"page"`
	Size      int                 `json:"size"`
}

type ImportQuestionsResponse struct {
	Imported int      `json:"imported"`
	IDs      []string `json:"ids"`
}

// ===== SERVICE INTERFACES =====

// VariantService generates exam variant batches and serves their artifacts
type VariantService interface {
	GenerateBatch(ctx context.Context, req *GenerateBatchRequest, user *models.User) (*BatchResponse, error)
	GetBatch(ctx context.Context, batchID string, user *models.User) (*BatchResponse, error)
	ListBatches(ctx context.Context, filters repositories.BatchFilters, user *models.User) (*BatchListResponse, error)
	ListVariants(ctx context.Context, batchID string, user *models.User) ([]VariantSummary, error)

	// GetAnswerKeyBundle returns the bundle bytes exactly as stored
	GetAnswerKeyBundle(ctx context.Context, batchID string, user *models.User) ([]byte, error)
	ExportAnswerKeys(ctx context.Context, batchID string, user *models.User) ([]byte, error)

	GetMasterVariant(ctx context.Context, batchID string, user *models.User) (*variant.ExamVariant, error)
	// GetStudentVariant returns the student-facing view, without answers
	GetStudentVariant(ctx context.Context, batchID, code string, user *models.User) (*variant.ExamVariant, error)

	VerifyVariant(ctx context.Context, batchID string, req *VerifyVariantRequest, user *models.User) (*VerifyVariantResponse, error)
	// ReplayBatch regenerates a batch from its stored snapshot and checks the
	// result against the stored bundle.
	ReplayBatch(ctx context.Context, batchID string, user *models.User) error
}

// QuestionService manages the authored question pool
type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, user *models.User) (*QuestionResponse, error)
	Import(ctx context.Context, questions []variant.Question, user *models.User) (*ImportQuestionsResponse, error)
	GetByID(ctx context.Context, id string, user *models.User) (*QuestionResponse, error)
	List(ctx context.Context, filters repositories.QuestionFilters, user *models.User) (*QuestionListResponse, error)
	Delete(ctx context.Context, id string, user *models.User) error
}

// ServiceManager owns the lifecycle of every service
type ServiceManager interface {
	Initialize(ctx context.Context) error
	Variant() VariantService
	Question() QuestionService
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
