// Package tx defines the transaction boundary used by domain services.
// The postgres implementation lives in infrastructure/storage/postgres;
// services only ever see these interfaces.
package tx

import "context"

// Manager runs a function inside a database transaction. An invoice and its
// items, or a payment and the resulting status flip, commit or roll back as
// one unit through this interface.
type Manager interface {
	// RunInTransaction commits when fn returns nil and rolls back otherwise.
	// A nested call joins the transaction already carried in ctx instead of
	// opening a second one.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager adds read-only transactions for report-style workloads
// where a consistent snapshot across several aggregate queries matters but
// no rows change.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction; writes inside fn fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
