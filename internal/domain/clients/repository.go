package clients

import (
	"context"

	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
	"zentropay/internal/domain"
)

// Repository defines client persistence operations.
type Repository interface {
	domain.Repository[*Client]

	// FindByEmail retrieves a client by email (unique).
	FindByEmail(ctx context.Context, email string) (*Client, error)

	// CountInvoices returns the number of invoices referencing the client,
	// in any status.
	CountInvoices(ctx context.Context, clientID id.ID) (int64, error)

	// ComputeOutstandingBalance sums total_amount over the client's pending
	// and overdue invoices.
	ComputeOutstandingBalance(ctx context.Context, clientID id.ID) (types.Money, error)

	// UpdateOutstandingBalance writes the cached aggregate.
	UpdateOutstandingBalance(ctx context.Context, clientID id.ID, balance types.Money) error
}
