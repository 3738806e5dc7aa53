package invoices

import (
	"context"
	"fmt"
	"time"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/id"
	"zentropay/internal/core/numerator"
	"zentropay/internal/core/tx"
	"zentropay/internal/core/types"
	"zentropay/internal/domain"
	"zentropay/pkg/logger"
)

// BalanceRefresher recomputes a client's cached outstanding balance.
// Implemented by the clients service; nil disables the cascade.
type BalanceRefresher interface {
	RefreshOutstandingBalance(ctx context.Context, clientID id.ID) (types.Money, error)
}

// Service provides business operations for invoices: creation with number
// generation, item-set replacement, lifecycle transitions and the overdue
// sweep.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
	balances  BalanceRefresher
	hooks     *domain.HookRegistry[*Invoice]

	now func() time.Time
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	gen numerator.Generator,
	txManager tx.Manager,
	balances BalanceRefresher,
) *Service {
	return &Service{
		repo:      repo,
		numerator: gen,
		txManager: txManager,
		balances:  balances,
		hooks:     domain.NewHookRegistry[*Invoice](),
		now:       time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

// Create persists a new invoice with its items. Derived amounts are
// recomputed server-side and the number is generated when empty; only draft
// and pending are accepted as initial status.
func (s *Service) Create(ctx context.Context, inv *Invoice) error {
	if err := s.hooks.RunBeforeCreate(ctx, inv); err != nil {
		return err
	}

	if inv.Status == "" {
		inv.Status = StatusDraft
	}
	if inv.Status != StatusDraft && inv.Status != StatusPending {
		return apperror.NewValidation("new invoices must start as draft or pending").
			WithDetail("field", "status").
			WithDetail("value", string(inv.Status))
	}
	if inv.Status == StatusPending && inv.SentAt == nil {
		sentAt := s.now().UTC()
		inv.SentAt = &sentAt
	}

	// Never trust caller-supplied amounts
	inv.ReplaceItems(inv.Items)

	if err := inv.Validate(ctx); err != nil {
		return err
	}

	// Generate number if empty; sequence is scoped to the current month
	if inv.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.InvoiceConfig(), s.now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		inv.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := s.repo.SaveItems(ctx, inv.ID, inv.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, inv); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}
	s.refreshBalance(ctx, inv.ClientID)

	logger.Info(ctx, "invoice created",
		"id", inv.ID,
		"number", inv.Number,
		"client_id", inv.ClientID,
		"total", inv.TotalAmount.String())

	return nil
}

// GetByID retrieves an invoice with its items.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	inv.Items = items

	return inv, nil
}

// GetByNumber retrieves an invoice by its number, with items.
func (s *Service) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	inv, err := s.repo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	inv.Items = items

	return inv, nil
}

// Update replaces an invoice's header fields and full item set atomically.
// The edit guard runs against the persisted status, and the number, status
// and lifecycle timestamps survive the edit untouched.
func (s *Service) Update(ctx context.Context, inv *Invoice) error {
	if err := s.hooks.RunBeforeUpdate(ctx, inv); err != nil {
		return err
	}

	inv.ReplaceItems(inv.Items)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetForUpdate(ctx, inv.ID)
		if err != nil {
			return err
		}
		if err := current.CanModify(); err != nil {
			return err
		}
		if inv.Version != current.Version {
			return apperror.NewConcurrentModification("invoice", inv.ID.String())
		}

		// Fields no edit may change. The version stays at the persisted
		// value; the repository bumps it on write.
		inv.Number = current.Number
		inv.Status = current.Status
		inv.SentAt = current.SentAt
		inv.PaidAt = current.PaidAt
		inv.CreatedAt = current.CreatedAt
		inv.CreatedBy = current.CreatedBy

		if err := inv.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := s.repo.SaveItems(ctx, inv.ID, inv.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterUpdate(ctx, inv); err != nil {
		logger.Warn(ctx, "after-update hook failed", "error", err)
	}
	s.refreshBalance(ctx, inv.ClientID)

	return nil
}

// Delete removes an invoice with its items. Paid invoices cannot be deleted.
func (s *Service) Delete(ctx context.Context, invoiceID id.ID) error {
	inv, err := s.repo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if inv.Status == StatusPaid {
		return apperror.NewInvoicePaid(invoiceID.String())
	}

	if err := s.hooks.RunBeforeDelete(ctx, inv); err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, invoiceID)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterDelete(ctx, inv); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "error", err)
	}
	s.refreshBalance(ctx, inv.ClientID)

	return nil
}

// MarkAsSent transitions an invoice to pending.
func (s *Service) MarkAsSent(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.transition(ctx, invoiceID, func(inv *Invoice) error {
		return inv.MarkAsSent(s.now())
	})
}

// MarkAsPaid transitions an invoice to paid. Invoking it on an invoice that
// is already paid succeeds without changing anything.
func (s *Service) MarkAsPaid(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	var alreadyPaid bool
	inv, err := s.transition(ctx, invoiceID, func(inv *Invoice) error {
		alreadyPaid = inv.Status == StatusPaid
		return inv.MarkAsPaid(s.now())
	})
	if err != nil {
		return nil, err
	}
	if alreadyPaid {
		logger.Debug(ctx, "invoice already paid, no-op", "id", invoiceID)
	}
	return inv, nil
}

// Cancel transitions an invoice to cancelled.
func (s *Service) Cancel(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.transition(ctx, invoiceID, func(inv *Invoice) error {
		return inv.Cancel()
	})
}

// transition loads the invoice under lock, applies fn and persists the
// result. The balance cascade runs after commit.
func (s *Service) transition(ctx context.Context, invoiceID id.ID, fn func(*Invoice) error) (*Invoice, error) {
	var inv *Invoice
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.repo.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}

		statusBefore := inv.Status
		sentBefore, paidBefore := inv.SentAt, inv.PaidAt
		if err := fn(inv); err != nil {
			return err
		}
		// A transition that changed neither status nor its timestamps
		// (marking a paid invoice paid again) skips the write entirely.
		if inv.Status == statusBefore && inv.SentAt == sentBefore && inv.PaidAt == paidBefore {
			return nil
		}

		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.refreshBalance(ctx, inv.ClientID)

	if err := s.hooks.RunAfterStatusChange(ctx, inv); err != nil {
		logger.Warn(ctx, "after-status-change hook failed", "error", err)
	}

	logger.Info(ctx, "invoice status changed",
		"id", inv.ID,
		"number", inv.Number,
		"status", inv.Status)

	return inv, nil
}

// MarkOverdueInvoices flips every pending invoice past due as of asOf to
// overdue, in one statement. Safe to run repeatedly; a second sweep for the
// same instant finds nothing left to flip. Returns the number of invoices
// affected.
func (s *Service) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error) {
	var changes []StatusChange
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		changes, err = s.repo.MarkOverdue(ctx, asOf)
		return err
	})
	if err != nil {
		return 0, err
	}

	// One refresh per affected client, after commit
	seen := make(map[id.ID]struct{}, len(changes))
	for _, ch := range changes {
		if _, ok := seen[ch.ClientID]; ok {
			continue
		}
		seen[ch.ClientID] = struct{}{}
		s.refreshBalance(ctx, ch.ClientID)
	}

	if len(changes) > 0 {
		logger.Info(ctx, "overdue sweep completed",
			"as_of", asOf.Format("2006-01-02"),
			"marked", len(changes),
			"clients", len(seen))
	}

	return int64(len(changes)), nil
}

// Duplicate creates a fresh draft copy of an existing invoice with a newly
// generated number.
func (s *Service) Duplicate(ctx context.Context, invoiceID id.ID, createdBy string) (*Invoice, error) {
	inv, err := s.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	dup := inv.Duplicate(createdBy)
	if err := s.Create(ctx, dup); err != nil {
		return nil, err
	}
	return dup, nil
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	return s.repo.List(ctx, filter)
}

// ListBilledTo retrieves invoices billed to a client. The client portal
// resolves the client by the authenticated user's email before calling this.
func (s *Service) ListBilledTo(ctx context.Context, clientID id.ID, filter ListFilter) (domain.ListResult[*Invoice], error) {
	filter.ClientID = &clientID
	return s.repo.List(ctx, filter)
}

// ListCreatedBy retrieves invoices created by a given user.
func (s *Service) ListCreatedBy(ctx context.Context, userID string, filter ListFilter) (domain.ListResult[*Invoice], error) {
	filter.CreatedBy = &userID
	return s.repo.List(ctx, filter)
}

func (s *Service) refreshBalance(ctx context.Context, clientID id.ID) {
	if s.balances == nil {
		return
	}
	if _, err := s.balances.RefreshOutstandingBalance(ctx, clientID); err != nil {
		logger.Warn(ctx, "balance refresh failed", "client_id", clientID, "error", err)
	}
}
