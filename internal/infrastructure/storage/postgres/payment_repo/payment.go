// Package payment_repo provides the PostgreSQL implementation of the payment
// repository.
package payment_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
	"zentropay/internal/domain"
	"zentropay/internal/domain/payments"
	"zentropay/internal/infrastructure/storage/postgres"
)

const paymentsTable = "payments"

// Repo implements payments.Repository.
type Repo struct {
	*postgres.BaseRepo[*payments.Payment]
}

var _ payments.Repository = (*Repo)(nil)

// New creates a new payment repository.
func New(txManager *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo(
			txManager,
			paymentsTable,
			"payment",
			postgres.ExtractDBColumns[payments.Payment](),
			func() *payments.Payment { return &payments.Payment{} },
		),
	}
}

// List retrieves payments with filtering.
func (r *Repo) List(ctx context.Context, filter payments.ListFilter) (domain.ListResult[*payments.Payment], error) {
	q := r.BaseSelect()

	if filter.InvoiceID != nil {
		q = q.Where(squirrel.Eq{"invoice_id": *filter.InvoiceID})
	}
	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.Method != nil {
		q = q.Where(squirrel.Eq{"payment_method": *filter.Method})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"payment_number": pattern},
			squirrel.ILike{"reference": pattern},
		})
	}

	return r.SelectList(ctx, q, filter.ListFilter, "payment_date DESC")
}

// ListByInvoice retrieves an invoice's payments, newest first.
func (r *Repo) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*payments.Payment, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("payment_date DESC", "created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var result []*payments.Payment
	if err := pgxscan.Select(ctx, r.Querier(ctx), &result, sql, args...); err != nil {
		return nil, fmt.Errorf("list by invoice: %w", err)
	}

	return result, nil
}

// SumByInvoice totals every payment row for the invoice regardless of status.
func (r *Repo) SumByInvoice(ctx context.Context, invoiceID id.ID) (types.Money, error) {
	var sum decimal.Decimal
	err := r.Querier(ctx).QueryRow(ctx,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1",
		invoiceID).Scan(&sum)
	if err != nil {
		return types.Zero(), fmt.Errorf("sum by invoice: %w", err)
	}
	return sum, nil
}
