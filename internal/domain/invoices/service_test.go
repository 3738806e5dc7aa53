package invoices

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/id"
	"zentropay/internal/core/numerator"
	"zentropay/internal/core/types"
	"zentropay/internal/domain"
)

// --- Test doubles ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeBalances struct {
	mu    sync.Mutex
	calls []id.ID
}

func (f *fakeBalances) RefreshOutstandingBalance(ctx context.Context, clientID id.ID) (types.Money, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, clientID)
	return types.Zero(), nil
}

type fakeRepo struct {
	mu       sync.Mutex
	invoices map[id.ID]*Invoice
	items    map[id.ID][]Item
	updates  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		invoices: make(map[id.ID]*Invoice),
		items:    make(map[id.ID][]Item),
	}
}

func (r *fakeRepo) clone(inv *Invoice) *Invoice {
	cp := *inv
	cp.Items = nil
	return &cp
}

func (r *fakeRepo) Create(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.invoices {
		if existing.Number == inv.Number {
			return apperror.NewDuplicate("invoice", "invoice_number", inv.Number)
		}
	}
	r.invoices[inv.ID] = r.clone(inv)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	return r.clone(inv), nil
}

func (r *fakeRepo) GetByNumber(ctx context.Context, number string) (*Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.Number == number {
			return r.clone(inv), nil
		}
	}
	return nil, apperror.NewNotFound("invoice", number)
}

// Update mirrors the repository's locking contract: the entity must carry
// the stored version, and the write bumps both to version+1.
func (r *fakeRepo) Update(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.invoices[inv.ID]
	if !ok {
		return apperror.NewNotFound("invoice", inv.ID.String())
	}
	if inv.Version != stored.Version {
		return apperror.NewConcurrentModification("invoice", inv.ID.String())
	}
	inv.SetVersion(inv.Version + 1)
	r.invoices[inv.ID] = r.clone(inv)
	r.updates++
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, invoiceID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.invoices, invoiceID)
	delete(r.items, invoiceID)
	return nil
}

func (r *fakeRepo) GetItems(ctx context.Context, invoiceID id.ID) ([]Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Item(nil), r.items[invoiceID]...), nil
}

func (r *fakeRepo) SaveItems(ctx context.Context, invoiceID id.ID, items []Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[invoiceID] = append([]Item(nil), items...)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Invoice
	for _, inv := range r.invoices {
		if filter.ClientID != nil && inv.ClientID != *filter.ClientID {
			continue
		}
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		if filter.CreatedBy != nil && inv.CreatedBy != *filter.CreatedBy {
			continue
		}
		out = append(out, r.clone(inv))
	}
	return domain.ListResult[*Invoice]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeRepo) MarkOverdue(ctx context.Context, asOf time.Time) ([]StatusChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changes []StatusChange
	cutoff := DateOnly(asOf)
	for _, inv := range r.invoices {
		if inv.Status == StatusPending && inv.DueDate.Before(cutoff) {
			inv.Status = StatusOverdue
			inv.Touch()
			changes = append(changes, StatusChange{InvoiceID: inv.ID, ClientID: inv.ClientID})
		}
	}
	return changes, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return r.GetByID(ctx, invoiceID)
}

var _ Repository = (*fakeRepo)(nil)

func newTestService() (*Service, *fakeRepo, *fakeBalances) {
	repo := newFakeRepo()
	balances := &fakeBalances{}
	svc := NewService(repo, &numerator.MockGenerator{}, fakeTxManager{}, balances)
	svc.now = func() time.Time { return testNow }
	return svc, repo, balances
}

func serviceInvoice() *Invoice {
	inv := NewInvoice(clientID, testNow, testDue, "tester")
	inv.AddItem(Item{
		Description:  "Consulting",
		Quantity:     types.NewQuantityFromFloat64(2),
		UnitPrice:    types.MustMoney("100.00"),
		TaxRate:      types.MustMoney("10"),
		DiscountRate: types.MustMoney("5"),
	})
	return inv
}

// --- Tests ---

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc, repo, balances := newTestService()

	inv := serviceInvoice()
	require.NoError(t, svc.Create(ctx, inv))

	assert.Equal(t, "INV-2025090001", inv.Number)
	assert.Equal(t, StatusDraft, inv.Status)

	stored, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, stored.Number)
	assert.Contains(t, balances.calls, inv.ClientID)
}

func TestServiceCreate_RecomputesAmounts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	inv := serviceInvoice()
	// Caller-supplied amounts are overwritten by the recompute.
	inv.Items[0].LineTotal = types.MustMoney("999999.00")
	inv.TotalAmount = types.MustMoney("1.00")

	require.NoError(t, svc.Create(ctx, inv))
	assert.True(t, inv.Items[0].LineTotal.Equal(types.MustMoney("200.00")))
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("209.00")))
}

func TestServiceCreate_PendingStampsSentAt(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	inv := serviceInvoice()
	inv.Status = StatusPending
	require.NoError(t, svc.Create(ctx, inv))
	require.NotNil(t, inv.SentAt)
	assert.Equal(t, testNow.UTC(), *inv.SentAt)
}

func TestServiceCreate_RejectsNonInitialStatus(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	for _, status := range []Status{StatusPaid, StatusOverdue, StatusCancelled} {
		inv := serviceInvoice()
		inv.Status = status
		assert.Error(t, svc.Create(ctx, inv), "status %s", status)
	}
}

func TestServiceCreate_ConcurrentNumbersAreDistinct(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	const n = 20
	var wg sync.WaitGroup
	numbers := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv := serviceInvoice()
			if err := svc.Create(ctx, inv); err == nil {
				numbers <- inv.Number
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := make(map[string]bool)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate invoice number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestServiceUpdate_PaidGuard(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	inv := serviceInvoice()
	require.NoError(t, svc.Create(ctx, inv))
	_, err := svc.MarkAsPaid(ctx, inv.ID)
	require.NoError(t, err)

	edited, err := svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	edited.Notes = "late edit"

	err = svc.Update(ctx, edited)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvoicePaid, appErr.Code)

	// Nothing was persisted.
	stored, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Notes)
}

func TestServiceUpdate_VersionConflict(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	inv := serviceInvoice()
	require.NoError(t, svc.Create(ctx, inv))

	stale, err := svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	stale.SetVersion(stale.Version + 5)

	err = svc.Update(ctx, stale)
	require.Error(t, err)
	assert.True(t, apperror.IsConcurrentModification(err))
}

func TestServiceLifecycle_VersionsAdvanceThroughWrites(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	inv := serviceInvoice()
	require.NoError(t, svc.Create(ctx, inv))
	created := inv.Version

	sent, err := svc.MarkAsSent(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, sent.Status)
	assert.Equal(t, created+1, sent.Version)

	edited, err := svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	edited.Notes = "updated terms"
	require.NoError(t, svc.Update(ctx, edited))
	assert.Equal(t, created+2, edited.Version, "caller gets the stored version back")

	paid, err := svc.MarkAsPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)

	stored, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, paid.Version, stored.Version)
}

func TestServiceUpdate_PreservesLifecycleFields(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	inv := serviceInvoice()
	inv.Status = StatusPending
	require.NoError(t, svc.Create(ctx, inv))
	number := inv.Number

	edited, err := svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	edited.Number = "INV-FORGED"
	edited.Status = StatusDraft
	edited.Notes = "edited"

	require.NoError(t, svc.Update(ctx, edited))

	stored, err := svc.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, number, stored.Number)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, "edited", stored.Notes)
	assert.NotNil(t, stored.SentAt)
}

func TestServiceDelete_PaidGuard(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	inv := serviceInvoice()
	require.NoError(t, svc.Create(ctx, inv))
	_, err := svc.MarkAsPaid(ctx, inv.ID)
	require.NoError(t, err)

	err = svc.Delete(ctx, inv.ID)
	require.Error(t, err)

	_, err = repo.GetByID(ctx, inv.ID)
	assert.NoError(t, err, "invoice must survive the rejected delete")
}

func TestServiceMarkAsPaid_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	inv := serviceInvoice()
	require.NoError(t, svc.Create(ctx, inv))

	first, err := svc.MarkAsPaid(ctx, inv.ID)
	require.NoError(t, err)
	require.NotNil(t, first.PaidAt)
	updatesAfterFirst := repo.updates

	second, err := svc.MarkAsPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.PaidAt, *second.PaidAt)
	assert.Equal(t, updatesAfterFirst, repo.updates, "no-op must not write")
}

func TestServiceMarkOverdueInvoices(t *testing.T) {
	ctx := context.Background()
	svc, _, balances := newTestService()

	otherClient := id.New()

	overdue1 := serviceInvoice()
	overdue1.Status = StatusPending
	overdue1.InvoiceDate = testNow.AddDate(0, -2, 0)
	overdue1.DueDate = testNow.AddDate(0, -1, 0)
	require.NoError(t, svc.Create(ctx, overdue1))

	overdue2 := serviceInvoice()
	overdue2.ClientID = otherClient
	overdue2.Status = StatusPending
	overdue2.InvoiceDate = testNow.AddDate(0, -2, 0)
	overdue2.DueDate = testNow.AddDate(0, 0, -3)
	require.NoError(t, svc.Create(ctx, overdue2))

	notDue := serviceInvoice()
	notDue.Status = StatusPending
	require.NoError(t, svc.Create(ctx, notDue))

	draft := serviceInvoice()
	draft.InvoiceDate = testNow.AddDate(0, -2, 0)
	draft.DueDate = testNow.AddDate(0, -1, 0)
	require.NoError(t, svc.Create(ctx, draft))

	count, err := svc.MarkOverdueInvoices(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	for _, invoiceID := range []id.ID{overdue1.ID, overdue2.ID} {
		stored, err := svc.GetByID(ctx, invoiceID)
		require.NoError(t, err)
		assert.Equal(t, StatusOverdue, stored.Status)
	}
	stored, err := svc.GetByID(ctx, notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	stored, err = svc.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)

	// Second sweep at the same instant finds nothing.
	count, err = svc.MarkOverdueInvoices(ctx, testNow)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Contains(t, balances.calls, clientID)
	assert.Contains(t, balances.calls, otherClient)
}

func TestServiceDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	inv := serviceInvoice()
	require.NoError(t, svc.Create(ctx, inv))
	_, err := svc.MarkAsPaid(ctx, inv.ID)
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, inv.ID, "copier")
	require.NoError(t, err)

	assert.NotEqual(t, inv.ID, dup.ID)
	assert.NotEqual(t, inv.Number, dup.Number)
	assert.NotEmpty(t, dup.Number)
	assert.Equal(t, StatusDraft, dup.Status)
	assert.True(t, dup.TotalAmount.Equal(types.MustMoney("209.00")))
}

func TestServiceListScoping(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	mine := serviceInvoice()
	require.NoError(t, svc.Create(ctx, mine))

	other := serviceInvoice()
	other.ClientID = id.New()
	other.CreatedBy = "someone-else"
	require.NoError(t, svc.Create(ctx, other))

	billed, err := svc.ListBilledTo(ctx, clientID, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), billed.TotalCount)

	created, err := svc.ListCreatedBy(ctx, "someone-else", ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.TotalCount)
}
