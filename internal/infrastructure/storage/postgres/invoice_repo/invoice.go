// Package invoice_repo provides the PostgreSQL implementation of the invoice
// repository.
package invoice_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/id"
	"zentropay/internal/domain"
	"zentropay/internal/domain/invoices"
	"zentropay/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "invoices"
	invoiceItemsTable = "invoice_items"
)

// Repo implements invoices.Repository.
type Repo struct {
	*postgres.BaseRepo[*invoices.Invoice]
}

var _ invoices.Repository = (*Repo)(nil)

// New creates a new invoice repository.
func New(txManager *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo(
			txManager,
			invoicesTable,
			"invoice",
			postgres.ExtractDBColumns[invoices.Invoice](),
			func() *invoices.Invoice { return &invoices.Invoice{} },
		),
	}
}

// GetByNumber retrieves an invoice by its number.
func (r *Repo) GetByNumber(ctx context.Context, number string) (*invoices.Invoice, error) {
	inv := &invoices.Invoice{}
	q := r.BaseSelect().
		Where(squirrel.Eq{"invoice_number": number})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", number)
		}
		return nil, fmt.Errorf("get by number: %w", err)
	}

	return inv, nil
}

// GetItems retrieves items for an invoice, in sort order.
func (r *Repo) GetItems(ctx context.Context, invoiceID id.ID) ([]invoices.Item, error) {
	q := r.Builder().
		Select(
			"line_id", "sort_order", "description", "details",
			"quantity", "unit_price", "tax_rate", "discount_rate",
			"line_total", "discount_amount", "tax_amount", "final_amount",
		).
		From(invoiceItemsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("sort_order")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []invoices.Item
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	return items, nil
}

// SaveItems replaces the invoice's item set (delete existing + insert new).
func (r *Repo) SaveItems(ctx context.Context, invoiceID id.ID, items []invoices.Item) error {
	querier := r.Querier(ctx)

	deleteSQL := "DELETE FROM " + invoiceItemsTable + " WHERE invoice_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, invoiceID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(invoiceItemsTable).
		Columns(
			"line_id", "invoice_id", "sort_order", "description", "details",
			"quantity", "unit_price", "tax_rate", "discount_rate",
			"line_total", "discount_amount", "tax_amount", "final_amount",
		)

	for _, it := range items {
		q = q.Values(
			it.LineID, invoiceID, it.SortOrder, it.Description, it.Details,
			it.Quantity, it.UnitPrice, it.TaxRate, it.DiscountRate,
			it.LineTotal, it.DiscountAmount, it.TaxAmount, it.FinalAmount,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

// List retrieves invoices with filtering.
func (r *Repo) List(ctx context.Context, filter invoices.ListFilter) (domain.ListResult[*invoices.Invoice], error) {
	q := r.BaseSelect()

	if filter.ClientID != nil {
		q = q.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.CreatedBy != nil {
		q = q.Where(squirrel.Eq{"created_by": *filter.CreatedBy})
	}
	if filter.IsRecurring != nil {
		q = q.Where(squirrel.Eq{"is_recurring": *filter.IsRecurring})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"invoice_date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"invoice_date": *filter.DateTo})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"invoice_number": "%" + filter.Search + "%"})
	}

	return r.SelectList(ctx, q, filter.ListFilter, "invoice_date DESC")
}

// MarkOverdue flips pending invoices past due as of asOf's date to overdue in
// one statement, returning the affected invoice and client IDs.
func (r *Repo) MarkOverdue(ctx context.Context, asOf time.Time) ([]invoices.StatusChange, error) {
	rows, err := r.Querier(ctx).Query(ctx, `
		UPDATE invoices
		SET status = 'overdue', updated_at = NOW(), version = version + 1
		WHERE status = 'pending' AND due_date < $1
		RETURNING id, client_id
	`, invoices.DateOnly(asOf))
	if err != nil {
		return nil, fmt.Errorf("mark overdue: %w", err)
	}
	defer rows.Close()

	var changes []invoices.StatusChange
	for rows.Next() {
		var ch invoices.StatusChange
		if err := rows.Scan(&ch.InvoiceID, &ch.ClientID); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		changes = append(changes, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mark overdue rows: %w", err)
	}

	return changes, nil
}
