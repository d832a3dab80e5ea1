package models

import (
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunDB builds statements against the postgres dialect without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=127.0.0.1 user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db
}

func insertedValue(t *testing.T, stmt *gorm.Statement, column string) any {
	t.Helper()
	sql := stmt.SQL.String()
	open, end := strings.Index(sql, "("), strings.Index(sql, ")")
	require.True(t, open >= 0 && end > open, sql)
	cols := strings.Split(sql[open+1:end], ",")
	idx := slices.Index(cols, `"`+column+`"`)
	require.GreaterOrEqual(t, idx, 0, "column %s missing from %s", column, sql)
	require.Less(t, idx, len(stmt.Vars))
	return stmt.Vars[idx]
}

func TestVariantBatchKeepsIncludeMaster(t *testing.T) {
	for _, include := range []bool{false, true} {
		batch := &VariantBatch{
			ID:            "b1",
			Seed:          "s",
			StudentCount:  2,
			IncludeMaster: include,
			Status:        BatchStatusDone,
			CreatedBy:     "teacher-1",
		}
		stmt := dryRunDB(t).Create(batch).Statement
		require.NoError(t, stmt.Error)

		assert.Equal(t, include, insertedValue(t, stmt, "include_master"))
		assert.Equal(t, include, batch.IncludeMaster)
	}
}
