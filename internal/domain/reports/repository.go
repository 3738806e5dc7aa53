package reports

import (
	"context"
	"time"
)

// Repository defines report data access interface.
type Repository interface {
	GetDashboardStats(ctx context.Context, asOf time.Time) (*DashboardStats, error)
	GetRevenueReport(ctx context.Context, filter RevenueReportFilter) (*RevenueReport, error)
	GetTopClients(ctx context.Context, filter TopClientsFilter) ([]ClientRevenueItem, error)
}
