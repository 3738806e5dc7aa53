package reports

import (
	"context"
	"fmt"
	"time"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/tx"
)

// Service provides report generation operations. The dashboard runs several
// aggregate queries, so it executes inside a read-only transaction to get a
// single consistent snapshot.
type Service struct {
	repo      Repository
	txManager tx.ReadOnlyManager
}

// NewService creates a new reports service.
func NewService(repo Repository, txManager tx.ReadOnlyManager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// GetDashboardStats returns the dashboard aggregate as of the given time
// (defaults to now when zero).
func (s *Service) GetDashboardStats(ctx context.Context, asOf time.Time) (*DashboardStats, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var stats *DashboardStats
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		stats, err = s.repo.GetDashboardStats(ctx, asOf)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get dashboard stats: %w", err)
	}
	return stats, nil
}

// GetRevenueReport returns monthly invoiced/paid figures for the window.
func (s *Service) GetRevenueReport(ctx context.Context, filter RevenueReportFilter) (*RevenueReport, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.FromDate.After(filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}

	var report *RevenueReport
	err := s.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		report, err = s.repo.GetRevenueReport(ctx, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get revenue report: %w", err)
	}
	return report, nil
}

// GetTopClients returns the client revenue ranking.
func (s *Service) GetTopClients(ctx context.Context, filter TopClientsFilter) ([]ClientRevenueItem, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}

	items, err := s.repo.GetTopClients(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("get top clients: %w", err)
	}
	return items, nil
}
