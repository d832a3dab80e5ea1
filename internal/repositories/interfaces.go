package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-variant-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Kind      *string `json:"kind"`
	CreatedBy *string `json:"created_by"`
	Limit     int     `json:"limit"`
	Offset    int     `json:"offset"`
	SortBy    string  `json:"sort_by"`    // "created_at", "id"
	SortOrder string  `json:"sort_order"` // "asc", "desc"
}

type BatchFilters struct {
	CreatedBy *string             `json:"created_by"`
	Status    *models.BatchStatus `json:"status"`
	DateFrom  *time.Time          `json:"date_from"`
	DateTo    *time.Time          `json:"date_to"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// ===== REPOSITORIES =====

// QuestionRepository stores authored questions.
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error)
	// GetByIDs returns the questions in the order of ids and fails with a
	// NotFoundError naming every missing id.
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Question, error)
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error
}

// BatchRepository stores generated batches and their variants.
type BatchRepository interface {
	// Create stores the batch together with batch.Variants.
	Create(ctx context.Context, tx *gorm.DB, batch *models.VariantBatch) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.VariantBatch, error)
	List(ctx context.Context, tx *gorm.DB, filters BatchFilters) ([]*models.VariantBatch, int64, error)

	GetVariant(ctx context.Context, tx *gorm.DB, batchID, code string) (*models.ExamVariantRecord, error)
	ListVariants(ctx context.Context, tx *gorm.DB, batchID string) ([]*models.ExamVariantRecord, error)
}
