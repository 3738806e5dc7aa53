package payments

import (
	"context"

	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
	"zentropay/internal/domain"
)

// Repository defines payment persistence operations.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, paymentID id.ID) (*Payment, error)
	Delete(ctx context.Context, paymentID id.ID) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Payment], error)
	ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error)

	// SumByInvoice totals the amount of every payment row for the invoice,
	// regardless of status.
	SumByInvoice(ctx context.Context, invoiceID id.ID) (types.Money, error)
}

// ListFilter for filtering payments.
type ListFilter struct {
	domain.ListFilter

	InvoiceID *id.ID
	ClientID  *id.ID
	Method    *Method
	Status    *Status
}
