package cache

import (
	"context"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateQuestionCache drops a question and every cached question list.
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionID string) {
	SafeDelete(ctx, cm.Question, "id:"+questionID)
	SafeInvalidatePattern(ctx, cm.Question, "list:*")
}

// InvalidateBatchCache drops everything cached for one batch.
func InvalidateBatchCache(ctx context.Context, cm *CacheManager, batchID string) {
	SafeDelete(ctx, cm.Batch, "id:"+batchID)
	SafeDelete(ctx, cm.Bundle, batchID)
	SafeInvalidatePattern(ctx, cm.Variant, batchID+":*")
}
