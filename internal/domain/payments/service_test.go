package payments

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/entity"
	"zentropay/internal/core/id"
	"zentropay/internal/core/numerator"
	"zentropay/internal/core/types"
	"zentropay/internal/domain"
	"zentropay/internal/domain/invoices"
)

var paymentTestNow = time.Date(2025, 9, 15, 10, 30, 0, 0, time.UTC)

// --- Test doubles ---

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[id.ID]*Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[id.ID]*Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, paymentID id.ID) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[paymentID]
	if !ok {
		return nil, apperror.NewNotFound("payment", paymentID.String())
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, paymentID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.payments, paymentID)
	return nil
}

func (r *fakePaymentRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Payment], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Payment
	for _, p := range r.payments {
		cp := *p
		out = append(out, &cp)
	}
	return domain.ListResult[*Payment]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakePaymentRepo) ListByInvoice(ctx context.Context, invoiceID id.ID) ([]*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Payment
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) SumByInvoice(ctx context.Context, invoiceID id.ID) (types.Money, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := types.Zero()
	for _, p := range r.payments {
		if p.InvoiceID == invoiceID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

var _ Repository = (*fakePaymentRepo)(nil)

// fakeInvoiceGateway holds a single invoice.
type fakeInvoiceGateway struct {
	invoice *invoices.Invoice
}

func (g *fakeInvoiceGateway) GetByID(ctx context.Context, invoiceID id.ID) (*invoices.Invoice, error) {
	if g.invoice == nil || g.invoice.ID != invoiceID {
		return nil, apperror.NewNotFound("invoice", invoiceID.String())
	}
	return g.invoice, nil
}

var _ InvoiceGateway = (*fakeInvoiceGateway)(nil)

func pendingInvoice(total string) *invoices.Invoice {
	inv := invoices.NewInvoice(id.New(), paymentTestNow, paymentTestNow.AddDate(0, 1, 0), "tester")
	inv.Status = invoices.StatusPending
	inv.TotalAmount = types.MustMoney(total)
	return inv
}

func newPaymentService(gateway *fakeInvoiceGateway) (*Service, *fakePaymentRepo) {
	repo := newFakePaymentRepo()
	svc := NewService(repo, gateway, &numerator.MockGenerator{}, fakeTxManager{})
	svc.now = func() time.Time { return paymentTestNow }
	return svc, repo
}

// --- Tests ---

func TestRecordDefaults(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeInvoiceGateway{invoice: pendingInvoice("500.00")}
	svc, repo := newPaymentService(gateway)

	p := &Payment{
		Base:      entity.NewBase(),
		InvoiceID: gateway.invoice.ID,
		ClientID:  id.New(), // caller input, overwritten from the invoice
		Amount:    types.MustMoney("100.00"),
		Method:    MethodBankTransfer,
	}
	require.NoError(t, svc.Record(ctx, p))

	assert.Equal(t, StatusCompleted, p.Status)
	assert.Equal(t, paymentTestNow, p.PaymentDate)
	assert.Equal(t, "PAY-2025090001", p.Number)
	assert.Equal(t, gateway.invoice.ClientID, p.ClientID)

	stored, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, gateway.invoice.ClientID, stored.ClientID)
}

func TestRecordValidation(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeInvoiceGateway{invoice: pendingInvoice("500.00")}
	svc, _ := newPaymentService(gateway)

	t.Run("non-positive amount", func(t *testing.T) {
		p := NewPayment(gateway.invoice.ID, types.Zero(), MethodCash, "tester")
		assert.Error(t, svc.Record(ctx, p))
	})

	t.Run("unknown method", func(t *testing.T) {
		p := NewPayment(gateway.invoice.ID, types.MustMoney("10"), Method("crypto"), "tester")
		assert.Error(t, svc.Record(ctx, p))
	})

	t.Run("missing invoice", func(t *testing.T) {
		p := NewPayment(id.New(), types.MustMoney("10"), MethodCash, "tester")
		err := svc.Record(ctx, p)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestRecord_CancelledInvoiceRejected(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeInvoiceGateway{invoice: pendingInvoice("500.00")}
	gateway.invoice.Status = invoices.StatusCancelled
	svc, repo := newPaymentService(gateway)

	p := NewPayment(gateway.invoice.ID, types.MustMoney("500.00"), MethodCash, "tester")
	err := svc.Record(ctx, p)
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "INVOICE_CANCELLED", appErr.Code)

	_, err = repo.GetByID(ctx, p.ID)
	assert.Error(t, err, "rejected payment must not be stored")
}

func TestRecord_FullPaymentLeavesStatusAlone(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeInvoiceGateway{invoice: pendingInvoice("300.00")}
	svc, _ := newPaymentService(gateway)

	first := NewPayment(gateway.invoice.ID, types.MustMoney("100.00"), MethodCash, "tester")
	require.NoError(t, svc.Record(ctx, first))
	second := NewPayment(gateway.invoice.ID, types.MustMoney("200.00"), MethodBankTransfer, "tester")
	require.NoError(t, svc.Record(ctx, second))

	// Full coverage shows in the summary only; paying the invoice off is a
	// separate explicit call.
	assert.Equal(t, invoices.StatusPending, gateway.invoice.Status)

	summary, err := svc.GetSummary(ctx, gateway.invoice.ID)
	require.NoError(t, err)
	assert.True(t, summary.FullyPaid)
	assert.True(t, summary.OutstandingAmount.IsZero())
}

func TestRecord_OverpaymentAccepted(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeInvoiceGateway{invoice: pendingInvoice("100.00")}
	svc, _ := newPaymentService(gateway)

	p := NewPayment(gateway.invoice.ID, types.MustMoney("150.00"), MethodCash, "tester")
	require.NoError(t, svc.Record(ctx, p))

	summary, err := svc.GetSummary(ctx, gateway.invoice.ID)
	require.NoError(t, err)
	assert.True(t, summary.FullyPaid)
	assert.True(t, summary.OutstandingAmount.IsNegative())
}

func TestRecord_SequentialNumbers(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeInvoiceGateway{invoice: pendingInvoice("1000.00")}
	svc, _ := newPaymentService(gateway)

	first := NewPayment(gateway.invoice.ID, types.MustMoney("10.00"), MethodCash, "tester")
	require.NoError(t, svc.Record(ctx, first))
	second := NewPayment(gateway.invoice.ID, types.MustMoney("10.00"), MethodCash, "tester")
	require.NoError(t, svc.Record(ctx, second))

	assert.Equal(t, "PAY-2025090001", first.Number)
	assert.Equal(t, "PAY-2025090002", second.Number)
}

func TestDelete_LeavesInvoiceStatusAlone(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeInvoiceGateway{invoice: pendingInvoice("100.00")}
	svc, repo := newPaymentService(gateway)

	p := NewPayment(gateway.invoice.ID, types.MustMoney("100.00"), MethodCash, "tester")
	require.NoError(t, svc.Record(ctx, p))
	gateway.invoice.Status = invoices.StatusPaid

	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err := repo.GetByID(ctx, p.ID)
	assert.Error(t, err)
	assert.Equal(t, invoices.StatusPaid, gateway.invoice.Status,
		"deleting a payment must not revert the invoice")
}

func TestDelete_NotFound(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeInvoiceGateway{invoice: pendingInvoice("100.00")}
	svc, _ := newPaymentService(gateway)

	err := svc.Delete(ctx, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestGetSummary(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeInvoiceGateway{invoice: pendingInvoice("250.00")}
	svc, _ := newPaymentService(gateway)

	summary, err := svc.GetSummary(ctx, gateway.invoice.ID)
	require.NoError(t, err)
	assert.True(t, summary.PaidAmount.IsZero())
	assert.True(t, summary.OutstandingAmount.Equal(types.MustMoney("250.00")))
	assert.False(t, summary.FullyPaid)

	p := NewPayment(gateway.invoice.ID, types.MustMoney("100.00"), MethodCash, "tester")
	require.NoError(t, svc.Record(ctx, p))

	summary, err = svc.GetSummary(ctx, gateway.invoice.ID)
	require.NoError(t, err)
	assert.True(t, summary.PaidAmount.Equal(types.MustMoney("100.00")))
	assert.True(t, summary.OutstandingAmount.Equal(types.MustMoney("150.00")))
	assert.False(t, summary.FullyPaid)
}
