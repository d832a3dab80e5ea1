package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-variant-service/internal/cache"
	"github.com/SAP-F-2025/exam-variant-service/internal/models"
	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
)

type BatchPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewBatchPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.BatchRepository {
	return &BatchPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(),
		cacheManager: cacheManager,
	}
}

// Create stores a batch and its variants in one transaction
func (b *BatchPostgreSQL) Create(ctx context.Context, tx *gorm.DB, batch *models.VariantBatch) error {
	db := b.getDB(tx)

	variants := batch.Variants
	batch.Variants = nil
	defer func() { batch.Variants = variants }()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return fmt.Errorf("failed to create batch: %w", err)
		}
		if len(variants) == 0 {
			return nil
		}
		for i := range variants {
			variants[i].BatchID = batch.ID
		}
		if err := tx.CreateInBatches(variants, 100).Error; err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return fmt.Errorf("batch %s: %w", batch.ID, repositories.ErrDuplicateKey)
			}
			return fmt.Errorf("failed to create variants: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateBatchCache(ctx, b.cacheManager, batch.ID)
	return nil
}

// GetByID retrieves a batch without its variants, with caching
func (b *BatchPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.VariantBatch, error) {
	db := b.getDB(tx)
	var batch models.VariantBatch

	err := b.cacheManager.Batch.CacheOrExecute(ctx, "id:"+id, &batch, cache.BatchCacheConfig.TTL, func() (any, error) {
		var row models.VariantBatch
		if err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.NewNotFoundError("batch", id)
			}
			return nil, fmt.Errorf("failed to get batch: %w", err)
		}
		return &row, nil
	})
	if err != nil {
		return nil, err
	}

	return &batch, nil
}

// List retrieves batches with filters and pagination
func (b *BatchPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.BatchFilters) ([]*models.VariantBatch, int64, error) {
	db := b.getDB(tx)
	query := b.helpers.ApplyBatchFilters(db.WithContext(ctx).Model(&models.VariantBatch{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count batches: %w", err)
	}

	var batches []*models.VariantBatch
	query = b.helpers.ApplyPaginationAndSort(query.Omit("bundle", "question_snapshot"), "created_at", "desc", filters.Limit, filters.Offset)
	if err := query.Find(&batches).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, total, nil
}

// GetVariant retrieves one variant of a batch by code, with caching
func (b *BatchPostgreSQL) GetVariant(ctx context.Context, tx *gorm.DB, batchID, code string) (*models.ExamVariantRecord, error) {
	db := b.getDB(tx)
	var record models.ExamVariantRecord

	key := fmt.Sprintf("%s:%s", batchID, code)
	err := b.cacheManager.Variant.CacheOrExecute(ctx, key, &record, cache.VariantCacheConfig.TTL, func() (any, error) {
		var row models.ExamVariantRecord
		if err := db.WithContext(ctx).Where("batch_id = ? AND code = ?", batchID, code).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, repositories.NewNotFoundError("variant", code)
			}
			return nil, fmt.Errorf("failed to get variant: %w", err)
		}
		return &row, nil
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// ListVariants retrieves every variant of a batch, master first
func (b *BatchPostgreSQL) ListVariants(ctx context.Context, tx *gorm.DB, batchID string) ([]*models.ExamVariantRecord, error) {
	db := b.getDB(tx)
	var records []*models.ExamVariantRecord
	if err := db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("student_index ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list variants: %w", err)
	}
	return records, nil
}

func (b *BatchPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return b.db
}
