// Package reports provides read-only billing analytics.
package reports

import (
	"time"

	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
)

// --- Dashboard ---

// DashboardStats is the front-page aggregate: counts per invoice status plus
// money totals. Monetary figures come from invoice totals, not payments.
type DashboardStats struct {
	TotalClients  int64 `json:"totalClients"`
	ActiveClients int64 `json:"activeClients"`

	TotalInvoices     int64 `json:"totalInvoices"`
	DraftInvoices     int64 `json:"draftInvoices"`
	PendingInvoices   int64 `json:"pendingInvoices"`
	PaidInvoices      int64 `json:"paidInvoices"`
	OverdueInvoices   int64 `json:"overdueInvoices"`
	CancelledInvoices int64 `json:"cancelledInvoices"`

	// TotalRevenue sums paid invoice totals
	TotalRevenue types.Money `json:"totalRevenue"`

	// OutstandingTotal sums pending and overdue invoice totals
	OutstandingTotal types.Money `json:"outstandingTotal"`

	// OverdueTotal sums overdue invoice totals only
	OverdueTotal types.Money `json:"overdueTotal"`

	// PaymentsThisMonth sums payments dated in asOf's calendar month
	PaymentsThisMonth types.Money `json:"paymentsThisMonth"`
}

// --- Revenue report ---

// RevenueReportFilter defines the reporting window.
type RevenueReportFilter struct {
	FromDate time.Time
	ToDate   time.Time
}

// RevenuePeriod is one month's row in the revenue report.
type RevenuePeriod struct {
	// Period in YYYY-MM form
	Period string `json:"period"`

	InvoiceCount   int64       `json:"invoiceCount"`
	InvoicedAmount types.Money `json:"invoicedAmount"`
	PaidAmount     types.Money `json:"paidAmount"`
}

// RevenueReport groups invoiced and received amounts by calendar month.
type RevenueReport struct {
	FromDate time.Time       `json:"fromDate"`
	ToDate   time.Time       `json:"toDate"`
	Periods  []RevenuePeriod `json:"periods"`

	TotalInvoiced types.Money `json:"totalInvoiced"`
	TotalPaid     types.Money `json:"totalPaid"`
}

// --- Client report ---

// TopClientsFilter limits the client revenue ranking.
type TopClientsFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
}

// ClientRevenueItem is one row in the client revenue ranking, ordered by
// total billed.
type ClientRevenueItem struct {
	ClientID    id.ID  `json:"clientId"`
	ClientName  string `json:"clientName"`
	ClientEmail string `json:"clientEmail"`

	InvoiceCount     int64       `json:"invoiceCount"`
	TotalBilled      types.Money `json:"totalBilled"`
	TotalPaid        types.Money `json:"totalPaid"`
	TotalOutstanding types.Money `json:"totalOutstanding"`
}
