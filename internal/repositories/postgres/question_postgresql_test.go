package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-variant-service/internal/cache"
	"github.com/SAP-F-2025/exam-variant-service/internal/models"
	"github.com/SAP-F-2025/exam-variant-service/internal/repositories"
	"github.com/SAP-F-2025/exam-variant-service/internal/variant"
)

// uniqueViolationDB fails every insert the way postgres does when a unique
// index is hit. No statement reaches a server.
func uniqueViolationDB(t *testing.T, translate bool) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=127.0.0.1 user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		TranslateError:         translate,
	})
	require.NoError(t, err)
	err = db.Callback().Create().Before("gorm:create").Register("test:unique_violation", func(tx *gorm.DB) {
		tx.AddError(&pgconn.PgError{
			Code:           "23505",
			Message:        `duplicate key value violates unique constraint "questions_pkey"`,
			ConstraintName: "questions_pkey",
		})
	})
	require.NoError(t, err)
	return db
}

func TestQuestionCreateDuplicate(t *testing.T) {
	row, err := models.NewQuestionFromVariant(variant.Question{ID: "q1", Body: "Capital of France", ExpectedAnswer: "Paris"}, "teacher-1")
	require.NoError(t, err)

	for _, translate := range []bool{true, false} {
		repo := NewQuestionPostgreSQL(uniqueViolationDB(t, translate), cache.NewCacheManager(nil))

		err := repo.Create(context.Background(), nil, row)
		require.Error(t, err)
		assert.True(t, repositories.IsDuplicateKeyError(err), "translate=%v: %v", translate, err)
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey)

		err = repo.CreateBatch(context.Background(), nil, []*models.Question{row})
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey, "translate=%v", translate)
	}
}
