package pkg

import (
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/exam-variant-service/internal/config"
)

func TestGormConfigTranslatesUniqueViolations(t *testing.T) {
	cfg := gormConfig(&config.Config{Environment: "production"})
	require.True(t, cfg.TranslateError)

	cfg.DryRun = true
	cfg.DisableAutomaticPing = true
	db, err := gorm.Open(postgres.Open("host=127.0.0.1 user=test dbname=test sslmode=disable"), cfg)
	require.NoError(t, err)

	err = db.Session(&gorm.Session{NewDB: true}).AddError(&pgconn.PgError{
		Code:    "23505",
		Message: "duplicate key value violates unique constraint",
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
