package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", fmt.Errorf("question q1: %w", ErrDuplicateKey), true},
		{"translated by gorm", gorm.ErrDuplicatedKey, true},
		{"raw unique violation", &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}, true},
		{"wrapped unique violation", fmt.Errorf("failed to create: %w", &pgconn.PgError{Code: "23505"}), true},
		{"other constraint", &pgconn.PgError{Code: "23503"}, false},
		{"not found", gorm.ErrRecordNotFound, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDuplicateKeyError(tt.err); got != tt.want {
				t.Errorf("IsDuplicateKeyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
