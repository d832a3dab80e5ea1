package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-variant-service/internal/models"
	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
)

// ===== IN-MEMORY REPOSITORIES =====

type mockQuestionRepository struct {
	mu   sync.Mutex
	rows map[string]*models.Question
}

func (m *mockQuestionRepository) Create(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	return m.CreateBatch(ctx, tx, []*models.Question{q})
}

func (m *mockQuestionRepository) CreateBatch(ctx context.Context, tx *gorm.DB, qs []*models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range qs {
		if _, ok := m.rows[q.ID]; ok {
			return fmt.Errorf("question %s: %w", q.ID, repositories.ErrDuplicateKey)
		}
	}
	for _, q := range qs {
		cp := *q
		cp.CreatedAt = time.Now()
		m.rows[q.ID] = &cp
	}
	return nil
}

func (m *mockQuestionRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.rows[id]
	if !ok {
		return nil, repositories.NewNotFoundError("question", id)
	}
	cp := *q
	return &cp, nil
}

func (m *mockQuestionRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []string) ([]*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Question
	var missing []string
	for _, id := range ids {
		q, ok := m.rows[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	if len(missing) > 0 {
		return nil, repositories.NewNotFoundError("question", missing...)
	}
	return out, nil
}

func (m *mockQuestionRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Question
	for _, q := range m.rows {
		if filters.CreatedBy != nil && q.CreatedBy != *filters.CreatedBy {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *mockQuestionRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repositories.NewNotFoundError("question", id)
	}
	delete(m.rows, id)
	return nil
}

type mockBatchRepository struct {
	mu       sync.Mutex
	batches  map[string]*models.VariantBatch
	variants map[string][]models.ExamVariantRecord
}

func (m *mockBatchRepository) Create(ctx context.Context, tx *gorm.DB, b *models.VariantBatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[b.ID]; ok {
		return repositories.ErrDuplicateKey
	}
	cp := *b
	cp.Variants = nil
	cp.CreatedAt = time.Now()
	m.batches[b.ID] = &cp
	m.variants[b.ID] = append([]models.ExamVariantRecord(nil), b.Variants...)
	return nil
}

func (m *mockBatchRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.VariantBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, repositories.NewNotFoundError("batch", id)
	}
	cp := *b
	return &cp, nil
}

func (m *mockBatchRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.BatchFilters) ([]*models.VariantBatch, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.VariantBatch
	for _, b := range m.batches {
		if filters.CreatedBy != nil && b.CreatedBy != *filters.CreatedBy {
			continue
		}
		if filters.Status != nil && b.Status != *filters.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (m *mockBatchRepository) GetVariant(ctx context.Context, tx *gorm.DB, batchID, code string) (*models.ExamVariantRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.variants[batchID] {
		if r.Code == code {
			cp := r
			return &cp, nil
		}
	}
	return nil, repositories.NewNotFoundError("variant", code)
}

func (m *mockBatchRepository) ListVariants(ctx context.Context, tx *gorm.DB, batchID string) ([]*models.ExamVariantRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ExamVariantRecord
	for _, r := range m.variants[batchID] {
		cp := r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentIndex < out[j].StudentIndex })
	return out, nil
}

type mockRepository struct {
	question *mockQuestionRepository
	batch    *mockBatchRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		question: &mockQuestionRepository{rows: map[string]*models.Question{}},
		batch: &mockBatchRepository{
			batches:  map[string]*models.VariantBatch{},
			variants: map[string][]models.ExamVariantRecord{},
		},
	}
}

func (m *mockRepository) Question() repositories.QuestionRepository { return m.question }
func (m *mockRepository) Batch() repositories.BatchRepository       { return m.batch }
func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== FIXTURES =====

var (
	teacher      = &models.User{ID: "teacher-1", Role: models.RoleTeacher}
	otherTeacher = &models.User{ID: "teacher-2", Role: models.RoleTeacher}
	admin        = &models.User{ID: "admin-1", Role: models.RoleAdmin}
	student      = &models.User{ID: "student-1", Role: models.RoleStudent}
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
