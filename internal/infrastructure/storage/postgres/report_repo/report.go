// Package report_repo provides PostgreSQL implementations of billing reports.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"zentropay/internal/core/id"
	"zentropay/internal/domain/reports"
	"zentropay/internal/infrastructure/storage/postgres"
)

// Repo implements reports.Repository with aggregate queries.
type Repo struct {
	txManager *postgres.TxManager
}

var _ reports.Repository = (*Repo)(nil)

// New creates a new report repository.
func New(txManager *postgres.TxManager) *Repo {
	return &Repo{txManager: txManager}
}

func (r *Repo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetDashboardStats collects client counts, per-status invoice counts and
// money totals in three queries.
func (r *Repo) GetDashboardStats(ctx context.Context, asOf time.Time) (*reports.DashboardStats, error) {
	querier := r.txManager.GetQuerier(ctx)
	stats := &reports.DashboardStats{}

	err := querier.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active)
		FROM clients
	`).Scan(&stats.TotalClients, &stats.ActiveClients)
	if err != nil {
		return nil, fmt.Errorf("client counts: %w", err)
	}

	var revenue, outstanding, overdue decimal.Decimal
	err = querier.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'draft'),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'paid'),
		       COUNT(*) FILTER (WHERE status = 'overdue'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COALESCE(SUM(total_amount) FILTER (WHERE status = 'paid'), 0),
		       COALESCE(SUM(total_amount) FILTER (WHERE status IN ('pending', 'overdue')), 0),
		       COALESCE(SUM(total_amount) FILTER (WHERE status = 'overdue'), 0)
		FROM invoices
	`).Scan(
		&stats.TotalInvoices,
		&stats.DraftInvoices,
		&stats.PendingInvoices,
		&stats.PaidInvoices,
		&stats.OverdueInvoices,
		&stats.CancelledInvoices,
		&revenue,
		&outstanding,
		&overdue,
	)
	if err != nil {
		return nil, fmt.Errorf("invoice counts: %w", err)
	}
	stats.TotalRevenue = revenue
	stats.OutstandingTotal = outstanding
	stats.OverdueTotal = overdue

	var monthPayments decimal.Decimal
	err = querier.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payments
		WHERE date_trunc('month', payment_date) = date_trunc('month', $1::timestamptz)
	`, asOf).Scan(&monthPayments)
	if err != nil {
		return nil, fmt.Errorf("month payments: %w", err)
	}
	stats.PaymentsThisMonth = monthPayments

	return stats, nil
}

type revenueRow struct {
	Period         string          `db:"period"`
	InvoiceCount   int64           `db:"invoice_count"`
	InvoicedAmount decimal.Decimal `db:"invoiced_amount"`
	PaidAmount     decimal.Decimal `db:"paid_amount"`
}

// GetRevenueReport groups invoiced totals and received payments by calendar
// month of the invoice date.
func (r *Repo) GetRevenueReport(ctx context.Context, filter reports.RevenueReportFilter) (*reports.RevenueReport, error) {
	querier := r.txManager.GetQuerier(ctx)

	// Invoiced and received amounts are aggregated separately so a joined
	// payment row never multiplies an invoice total.
	var rows []revenueRow
	err := pgxscan.Select(ctx, querier, &rows, `
		WITH inv AS (
		    SELECT to_char(date_trunc('month', invoice_date), 'YYYY-MM') AS period,
		           COUNT(*)                      AS invoice_count,
		           COALESCE(SUM(total_amount), 0) AS invoiced_amount
		    FROM invoices
		    WHERE invoice_date >= $1 AND invoice_date <= $2
		      AND status <> 'cancelled'
		    GROUP BY 1
		), pay AS (
		    SELECT to_char(date_trunc('month', payment_date), 'YYYY-MM') AS period,
		           COALESCE(SUM(amount), 0) AS paid_amount
		    FROM payments
		    WHERE payment_date >= $1 AND payment_date <= $2
		    GROUP BY 1
		)
		SELECT COALESCE(inv.period, pay.period)      AS period,
		       COALESCE(inv.invoice_count, 0)        AS invoice_count,
		       COALESCE(inv.invoiced_amount, 0)      AS invoiced_amount,
		       COALESCE(pay.paid_amount, 0)          AS paid_amount
		FROM inv
		FULL OUTER JOIN pay ON inv.period = pay.period
		ORDER BY 1
	`, filter.FromDate, filter.ToDate)
	if err != nil {
		return nil, fmt.Errorf("revenue rows: %w", err)
	}

	report := &reports.RevenueReport{
		FromDate:      filter.FromDate,
		ToDate:        filter.ToDate,
		Periods:       make([]reports.RevenuePeriod, 0, len(rows)),
		TotalInvoiced: decimal.Zero,
		TotalPaid:     decimal.Zero,
	}
	for _, row := range rows {
		report.Periods = append(report.Periods, reports.RevenuePeriod{
			Period:         row.Period,
			InvoiceCount:   row.InvoiceCount,
			InvoicedAmount: row.InvoicedAmount,
			PaidAmount:     row.PaidAmount,
		})
		report.TotalInvoiced = report.TotalInvoiced.Add(row.InvoicedAmount)
		report.TotalPaid = report.TotalPaid.Add(row.PaidAmount)
	}

	return report, nil
}

type topClientRow struct {
	ClientID         id.ID           `db:"client_id"`
	ClientName       string          `db:"client_name"`
	ClientEmail      string          `db:"client_email"`
	InvoiceCount     int64           `db:"invoice_count"`
	TotalBilled      decimal.Decimal `db:"total_billed"`
	TotalPaid        decimal.Decimal `db:"total_paid"`
	TotalOutstanding decimal.Decimal `db:"total_outstanding"`
}

// GetTopClients ranks clients by billed total over the window.
func (r *Repo) GetTopClients(ctx context.Context, filter reports.TopClientsFilter) ([]reports.ClientRevenueItem, error) {
	q := r.builder().
		Select(
			"c.id AS client_id",
			"c.name AS client_name",
			"c.email AS client_email",
			"COUNT(i.id) AS invoice_count",
			"COALESCE(SUM(i.total_amount) FILTER (WHERE i.status <> 'cancelled'), 0) AS total_billed",
			"COALESCE(SUM(i.total_amount) FILTER (WHERE i.status = 'paid'), 0) AS total_paid",
			"COALESCE(SUM(i.total_amount) FILTER (WHERE i.status IN ('pending', 'overdue')), 0) AS total_outstanding",
		).
		From("clients c").
		Join("invoices i ON i.client_id = c.id").
		GroupBy("c.id", "c.name", "c.email").
		OrderBy("total_billed DESC").
		Limit(uint64(filter.Limit))

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"i.invoice_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"i.invoice_date": *filter.ToDate})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []topClientRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("top clients: %w", err)
	}

	items := make([]reports.ClientRevenueItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, reports.ClientRevenueItem{
			ClientID:         row.ClientID,
			ClientName:       row.ClientName,
			ClientEmail:      row.ClientEmail,
			InvoiceCount:     row.InvoiceCount,
			TotalBilled:      row.TotalBilled,
			TotalPaid:        row.TotalPaid,
			TotalOutstanding: row.TotalOutstanding,
		})
	}

	return items, nil
}
