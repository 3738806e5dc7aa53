package clients

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
	"zentropay/internal/domain"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeClientRepo struct {
	mu       sync.Mutex
	clients  map[id.ID]*Client
	invoices map[id.ID]int64
	balances map[id.ID]types.Money
}

func newFakeClientRepo() *fakeClientRepo {
	return &fakeClientRepo{
		clients:  make(map[id.ID]*Client),
		invoices: make(map[id.ID]int64),
		balances: make(map[id.ID]types.Money),
	}
}

func (r *fakeClientRepo) Create(ctx context.Context, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *fakeClientRepo) GetByID(ctx context.Context, clientID id.ID) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[clientID]
	if !ok {
		return nil, apperror.NewNotFound("client", clientID.String())
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClientRepo) Update(ctx context.Context, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ID]; !ok {
		return apperror.NewNotFound("client", c.ID.String())
	}
	cp := *c
	r.clients[c.ID] = &cp
	return nil
}

func (r *fakeClientRepo) Delete(ctx context.Context, clientID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
	return nil
}

func (r *fakeClientRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Client], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Client
	for _, c := range r.clients {
		cp := *c
		out = append(out, &cp)
	}
	return domain.ListResult[*Client]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeClientRepo) Exists(ctx context.Context, clientID id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.clients[clientID]
	return ok, nil
}

func (r *fakeClientRepo) FindByEmail(ctx context.Context, email string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("client", email)
}

func (r *fakeClientRepo) CountInvoices(ctx context.Context, clientID id.ID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invoices[clientID], nil
}

func (r *fakeClientRepo) ComputeOutstandingBalance(ctx context.Context, clientID id.ID) (types.Money, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.balances[clientID]; ok {
		return b, nil
	}
	return types.Zero(), nil
}

func (r *fakeClientRepo) UpdateOutstandingBalance(ctx context.Context, clientID id.ID, balance types.Money) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[clientID]
	if !ok {
		return apperror.NewNotFound("client", clientID.String())
	}
	c.OutstandingBalance = balance
	return nil
}

var _ Repository = (*fakeClientRepo)(nil)

func newClientService() (*Service, *fakeClientRepo) {
	repo := newFakeClientRepo()
	return NewService(repo, fakeTxManager{}), repo
}

func TestClientCreate_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	svc, _ := newClientService()

	first := NewClient("Acme Corp", "billing@acme.example", "tester")
	require.NoError(t, svc.Create(ctx, first))

	dup := NewClient("Acme Duplicate", "billing@acme.example", "tester")
	err := svc.Create(ctx, dup)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
}

func TestClientUpdate_KeepingOwnEmailAllowed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newClientService()

	c := NewClient("Acme Corp", "billing@acme.example", "tester")
	require.NoError(t, svc.Create(ctx, c))

	c.Phone = "+1 555 0100"
	assert.NoError(t, svc.Update(ctx, c))
}

func TestClientUpdate_StealingEmailRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newClientService()

	a := NewClient("Acme Corp", "billing@acme.example", "tester")
	require.NoError(t, svc.Create(ctx, a))
	b := NewClient("Wayne Enterprises", "ap@wayne.example", "tester")
	require.NoError(t, svc.Create(ctx, b))

	b.Email = "billing@acme.example"
	assert.Error(t, svc.Update(ctx, b))
}

func TestClientDelete_InvoiceGuard(t *testing.T) {
	ctx := context.Background()
	svc, repo := newClientService()

	c := NewClient("Acme Corp", "billing@acme.example", "tester")
	require.NoError(t, svc.Create(ctx, c))
	repo.invoices[c.ID] = 3

	err := svc.Delete(ctx, c.ID)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeClientHasInvoices, appErr.Code)

	// Client must still exist after the vetoed delete.
	exists, err := svc.Exists(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClientDelete_NoInvoices(t *testing.T) {
	ctx := context.Background()
	svc, _ := newClientService()

	c := NewClient("Acme Corp", "billing@acme.example", "tester")
	require.NoError(t, svc.Create(ctx, c))
	require.NoError(t, svc.Delete(ctx, c.ID))

	_, err := svc.GetByID(ctx, c.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestRefreshOutstandingBalance(t *testing.T) {
	ctx := context.Background()
	svc, repo := newClientService()

	c := NewClient("Acme Corp", "billing@acme.example", "tester")
	require.NoError(t, svc.Create(ctx, c))
	repo.balances[c.ID] = types.MustMoney("420.00")

	balance, err := svc.RefreshOutstandingBalance(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(types.MustMoney("420.00")))

	stored, err := svc.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.OutstandingBalance.Equal(types.MustMoney("420.00")))
}

func TestGetBalance(t *testing.T) {
	ctx := context.Background()
	svc, repo := newClientService()

	c := NewClient("Acme Corp", "billing@acme.example", "tester")
	c.CreditLimit = types.MustMoney("1000")
	require.NoError(t, svc.Create(ctx, c))
	repo.balances[c.ID] = types.MustMoney("1200.00")

	b, err := svc.GetBalance(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, b.OutstandingBalance.Equal(types.MustMoney("1200.00")))
	assert.True(t, b.AvailableCredit.IsZero())
	assert.True(t, b.CreditLimitExceeded)
}

func TestFindByEmail_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newClientService()

	_, err := svc.FindByEmail(ctx, "ghost@nowhere.example")
	assert.True(t, apperror.IsNotFound(err))
}
