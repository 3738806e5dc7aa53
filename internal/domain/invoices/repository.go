package invoices

import (
	"context"
	"time"

	"zentropay/internal/core/id"
	"zentropay/internal/domain"
)

// Repository defines invoice persistence operations.
type Repository interface {
	// CRUD operations
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetByNumber(ctx context.Context, number string) (*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, invoiceID id.ID) error

	// Item operations. SaveItems replaces the whole set: delete then insert,
	// inside the caller's transaction.
	GetItems(ctx context.Context, invoiceID id.ID) ([]Item, error)
	SaveItems(ctx context.Context, invoiceID id.ID, items []Item) error

	// List operations
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)

	// MarkOverdue flips every pending invoice whose due date is strictly
	// before asOf's date to overdue, returning the affected invoices.
	// Running it twice for the same instant affects nothing the second time.
	MarkOverdue(ctx context.Context, asOf time.Time) ([]StatusChange, error)

	// Locking
	GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error)
}

// StatusChange identifies an invoice touched by a bulk status operation,
// with the client whose balance it affects.
type StatusChange struct {
	InvoiceID id.ID
	ClientID  id.ID
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	// Invoice-specific filters
	ClientID    *id.ID
	Status      *Status
	CreatedBy   *string
	IsRecurring *bool
	DateFrom    *time.Time
	DateTo      *time.Time
}
