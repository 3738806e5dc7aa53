// Package numerator provides the PostgreSQL implementation of document
// auto-numbering. It implements core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "zentropay/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service allocates document numbers from the sys_sequences table. Each
// allocation is a single UPSERT with RETURNING, so concurrent callers always
// receive distinct values and the sequence never skips on contention.
type Service struct {
	querier Querier
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a new numerator service.
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// GetNextNumber generates the next document number.
// Invoice pattern: INV-YYYYMM#### (e.g., INV-2025090001); the counter row is
// keyed per prefix and period, so each month starts again at 0001.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	var num int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO sys_sequences (key, current_val)
        VALUES ($1, 1)
        ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
        RETURNING current_val
	`, cfg.Key(period)).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number: %w", err)
	}

	return cfg.Format(period, num), nil
}

// SetNextNumber sets the next sequence value (for migration purposes).
// The counter is stored as value-1 so the next allocation returns value.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	var result int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, cfg.Key(period), value-1).Scan(&result)
	return err
}
