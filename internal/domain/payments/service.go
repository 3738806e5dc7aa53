package payments

import (
	"context"
	"fmt"
	"time"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/id"
	"zentropay/internal/core/numerator"
	"zentropay/internal/core/tx"
	"zentropay/internal/domain"
	"zentropay/internal/domain/invoices"
	"zentropay/pkg/logger"
)

// InvoiceGateway is the slice of the invoice service the payment flow needs.
type InvoiceGateway interface {
	GetByID(ctx context.Context, invoiceID id.ID) (*invoices.Invoice, error)
}

// Service records payments against invoices. Recording never transitions the
// invoice: marking an invoice paid is a separate explicit operation, even
// when recorded payments already cover the total.
type Service struct {
	repo      Repository
	invoices  InvoiceGateway
	numerator numerator.Generator
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Payment]

	now func() time.Time
}

// NewService creates a new payment service.
func NewService(
	repo Repository,
	gateway InvoiceGateway,
	gen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		invoices:  gateway,
		numerator: gen,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Payment](),
		now:       time.Now,
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Payment] {
	return s.hooks
}

// Record persists a payment against an invoice. Cancelled invoices accept no
// payments. The invoice's status is untouched; whether the payment covers
// the total only shows up in the summary and the log line.
func (s *Service) Record(ctx context.Context, p *Payment) error {
	if p.Status == "" {
		p.Status = StatusCompleted
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = s.now().UTC()
	}
	if err := p.Validate(ctx); err != nil {
		return err
	}

	inv, err := s.invoices.GetByID(ctx, p.InvoiceID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewNotFound("invoice", p.InvoiceID.String())
		}
		return err
	}
	if inv.Status == invoices.StatusCancelled {
		return apperror.NewBusinessRule("INVOICE_CANCELLED",
			"cannot record a payment against a cancelled invoice").
			WithDetail("invoiceId", p.InvoiceID.String())
	}
	p.ClientID = inv.ClientID

	if p.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.PaymentConfig(), s.now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		p.Number = number
	}

	var fullyPaid bool
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		paid, err := s.repo.SumByInvoice(ctx, p.InvoiceID)
		if err != nil {
			return fmt.Errorf("sum payments: %w", err)
		}
		fullyPaid = inv.IsFullyPaid(paid)
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterCreate(ctx, p); err != nil {
		logger.Warn(ctx, "after-create hook failed", "error", err)
	}

	logger.Info(ctx, "payment recorded",
		"id", p.ID,
		"number", p.Number,
		"invoice_id", p.InvoiceID,
		"amount", p.Amount.String(),
		"fully_paid", fullyPaid)

	return nil
}

// GetByID retrieves a payment.
func (s *Service) GetByID(ctx context.Context, paymentID id.ID) (*Payment, error) {
	p, err := s.repo.GetByID(ctx, paymentID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("payment", paymentID.String())
		}
		return nil, err
	}
	return p, nil
}

// Delete removes a payment record. The invoice's status is left alone; a
// paid invoice stays paid even if a payment row is removed.
func (s *Service) Delete(ctx context.Context, paymentID id.ID) error {
	p, err := s.GetByID(ctx, paymentID)
	if err != nil {
		return err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, paymentID)
	})
	if err != nil {
		return err
	}

	if err := s.hooks.RunAfterDelete(ctx, p); err != nil {
		logger.Warn(ctx, "after-delete hook failed", "error", err)
	}

	logger.Info(ctx, "payment deleted",
		"id", p.ID,
		"number", p.Number,
		"invoice_id", p.InvoiceID)

	return nil
}

// List retrieves payments with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Payment], error) {
	return s.repo.List(ctx, filter)
}

// ListByInvoice retrieves an invoice's payments.
func (s *Service) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error) {
	return s.repo.ListByInvoice(ctx, invoiceID)
}

// GetSummary returns the paid/outstanding aggregate for an invoice.
func (s *Service) GetSummary(ctx context.Context, invoiceID id.ID) (*Summary, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	paid, err := s.repo.SumByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("sum payments: %w", err)
	}

	return &Summary{
		InvoiceID:         invoiceID,
		PaidAmount:        paid,
		OutstandingAmount: inv.OutstandingAmount(paid),
		FullyPaid:         inv.IsFullyPaid(paid),
	}, nil
}
