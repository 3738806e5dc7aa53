package clients

import (
	"context"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/id"
	"zentropay/internal/core/tx"
	"zentropay/internal/core/types"
	"zentropay/internal/domain"
	"zentropay/pkg/logger"
)

// Service provides business logic for the client directory.
// Uses composition with domain.EntityService for common CRUD operations.
type Service struct {
	*domain.EntityService[*Client]
	repo Repository
}

// NewService creates a new client service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewEntityService(domain.EntityServiceConfig[*Client]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "client",
	})

	svc := &Service{
		EntityService: base,
		repo:          repo,
	}

	base.Hooks().On(domain.BeforeCreate, svc.checkEmailUnique)
	base.Hooks().On(domain.BeforeUpdate, svc.checkEmailUnique)
	base.Hooks().On(domain.BeforeDelete, svc.checkNoInvoices)

	return svc
}

// checkEmailUnique rejects a second client with the same email.
func (s *Service) checkEmailUnique(ctx context.Context, c *Client) error {
	existing, err := s.repo.FindByEmail(ctx, c.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != c.ID {
		return apperror.NewDuplicate("client", "email", c.Email)
	}
	return nil
}

// checkNoInvoices is the delete guard: a client referenced by any invoice
// cannot be removed.
func (s *Service) checkNoInvoices(ctx context.Context, c *Client) error {
	count, err := s.repo.CountInvoices(ctx, c.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.NewClientHasInvoices(c.ID.String(), count)
	}
	return nil
}

// FindByEmail retrieves a client by email.
func (s *Service) FindByEmail(ctx context.Context, email string) (*Client, error) {
	c, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("client", email)
		}
		return nil, err
	}
	return c, nil
}

// RefreshOutstandingBalance recomputes the cached balance from the client's
// pending and overdue invoices and persists it. Invoked from the invoice and
// payment flows after any mutation that changes what the client owes.
func (s *Service) RefreshOutstandingBalance(ctx context.Context, clientID id.ID) (types.Money, error) {
	var balance types.Money
	err := s.TxManager().RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.repo.ComputeOutstandingBalance(ctx, clientID)
		if err != nil {
			return err
		}
		return s.repo.UpdateOutstandingBalance(ctx, clientID, balance)
	})
	if err != nil {
		return types.Zero(), err
	}
	logger.Debug(ctx, "outstanding balance refreshed",
		"client_id", clientID.String(),
		"balance", balance.String())
	return balance, nil
}

// Balance is the credit snapshot exposed to the API.
type Balance struct {
	ClientID            id.ID       `json:"clientId"`
	OutstandingBalance  types.Money `json:"outstandingBalance"`
	CreditLimit         types.Money `json:"creditLimit"`
	AvailableCredit     types.Money `json:"availableCredit"`
	CreditLimitExceeded bool        `json:"creditLimitExceeded"`
}

// GetBalance returns the credit snapshot, recomputing the cached aggregate
// first so the numbers reflect the current invoice set.
func (s *Service) GetBalance(ctx context.Context, clientID id.ID) (*Balance, error) {
	c, err := s.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	balance, err := s.RefreshOutstandingBalance(ctx, clientID)
	if err != nil {
		return nil, err
	}
	c.OutstandingBalance = balance
	return &Balance{
		ClientID:            c.ID,
		OutstandingBalance:  c.OutstandingBalance,
		CreditLimit:         c.CreditLimit,
		AvailableCredit:     c.AvailableCredit(),
		CreditLimitExceeded: c.HasExceededCreditLimit(),
	}, nil
}
