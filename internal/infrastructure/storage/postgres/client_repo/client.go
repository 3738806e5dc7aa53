// Package client_repo provides the PostgreSQL implementation of the client
// repository.
package client_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
	"zentropay/internal/domain"
	"zentropay/internal/domain/clients"
	"zentropay/internal/infrastructure/storage/postgres"
)

const clientsTable = "clients"

// Repo implements clients.Repository.
type Repo struct {
	*postgres.BaseRepo[*clients.Client]
}

var _ clients.Repository = (*Repo)(nil)

// New creates a new client repository.
func New(txManager *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo(
			txManager,
			clientsTable,
			"client",
			postgres.ExtractDBColumns[clients.Client](),
			func() *clients.Client { return &clients.Client{} },
		),
	}
}

// FindByEmail retrieves a client by email.
func (r *Repo) FindByEmail(ctx context.Context, email string) (*clients.Client, error) {
	client := &clients.Client{}
	q := r.BaseSelect().
		Where(squirrel.Eq{"email": email})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), client, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("client", email)
		}
		return nil, fmt.Errorf("find by email: %w", err)
	}

	return client, nil
}

// List retrieves clients, matching search against name, email and company.
func (r *Repo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*clients.Client], error) {
	q := r.BaseSelect()

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"email": pattern},
			squirrel.ILike{"company_name": pattern},
		})
	}

	return r.SelectList(ctx, q, filter, "name ASC")
}

// CountInvoices returns the number of invoices referencing the client.
func (r *Repo) CountInvoices(ctx context.Context, clientID id.ID) (int64, error) {
	var count int64
	err := r.Querier(ctx).QueryRow(ctx,
		"SELECT COUNT(*) FROM invoices WHERE client_id = $1", clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count invoices: %w", err)
	}
	return count, nil
}

// ComputeOutstandingBalance sums total_amount over pending and overdue
// invoices.
func (r *Repo) ComputeOutstandingBalance(ctx context.Context, clientID id.ID) (types.Money, error) {
	var balance decimal.Decimal
	err := r.Querier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM invoices
		WHERE client_id = $1 AND status IN ('pending', 'overdue')
	`, clientID).Scan(&balance)
	if err != nil {
		return types.Zero(), fmt.Errorf("compute outstanding balance: %w", err)
	}
	return balance, nil
}

// UpdateOutstandingBalance writes the cached aggregate without touching the
// row version.
func (r *Repo) UpdateOutstandingBalance(ctx context.Context, clientID id.ID, balance types.Money) error {
	result, err := r.Querier(ctx).Exec(ctx,
		"UPDATE clients SET outstanding_balance = $1, updated_at = NOW() WHERE id = $2",
		balance, clientID)
	if err != nil {
		return fmt.Errorf("update outstanding balance: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("client", clientID.String())
	}
	return nil
}
