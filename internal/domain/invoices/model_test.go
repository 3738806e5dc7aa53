package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
)

var (
	testNow  = time.Date(2025, 9, 15, 10, 30, 0, 0, time.UTC)
	testDue  = testNow.AddDate(0, 0, 30)
	clientID = id.New()
)

func validInvoice() *Invoice {
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

func TestItemRecalculate(t *testing.T) {
	it := Item{
		Quantity:     types.NewQuantityFromFloat64(2),
		UnitPrice:    types.MustMoney("100.00"),
		TaxRate:      types.MustMoney("10"),
		DiscountRate: types.MustMoney("5"),
	}
	it.Recalculate()

	assert.True(t, it.LineTotal.Equal(types.MustMoney("200.00")), "line total: %s", it.LineTotal)
	assert.True(t, it.DiscountAmount.Equal(types.MustMoney("10.00")), "discount: %s", it.DiscountAmount)
	// Tax applies to the discounted base: (200 - 10) * 10% = 19.00.
	assert.True(t, it.TaxAmount.Equal(types.MustMoney("19.00")), "tax: %s", it.TaxAmount)
	assert.True(t, it.FinalAmount.Equal(types.MustMoney("209.00")), "final: %s", it.FinalAmount)
}

func TestItemRecalculate_FractionalQuantity(t *testing.T) {
	it := Item{
		Quantity:  types.NewQuantityFromFloat64(2.5),
		UnitPrice: types.MustMoney("19.99"),
	}
	it.Recalculate()

	// 2.5 * 19.99 = 49.975, rounded half away from zero.
	assert.True(t, it.LineTotal.Equal(types.MustMoney("49.98")), "line total: %s", it.LineTotal)
	assert.True(t, it.TaxAmount.IsZero())
	assert.True(t, it.DiscountAmount.IsZero())
	assert.True(t, it.FinalAmount.Equal(types.MustMoney("49.98")))
}

func TestRecalculateTotals(t *testing.T) {
	inv := NewInvoice(clientID, testNow, testDue, "tester")
	inv.AddItem(Item{
		Description:  "A",
		Quantity:     types.NewQuantityFromFloat64(2),
		UnitPrice:    types.MustMoney("100.00"),
		TaxRate:      types.MustMoney("10"),
		DiscountRate: types.MustMoney("5"),
	})
	inv.AddItem(Item{
		Description: "B",
		Quantity:    types.NewQuantityFromFloat64(1),
		UnitPrice:   types.MustMoney("50.00"),
	})

	// Subtotal is the sum of undiscounted line totals.
	assert.True(t, inv.Subtotal.Equal(types.MustMoney("250.00")), "subtotal: %s", inv.Subtotal)
	assert.True(t, inv.TaxAmount.Equal(types.MustMoney("19.00")), "tax: %s", inv.TaxAmount)
	assert.True(t, inv.DiscountAmount.Equal(types.MustMoney("10.00")), "discount: %s", inv.DiscountAmount)
	// Total = subtotal + tax - discount.
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("259.00")), "total: %s", inv.TotalAmount)
}

func TestReplaceItems(t *testing.T) {
	inv := validInvoice()
	firstTotal := inv.TotalAmount

	inv.ReplaceItems([]Item{
		{
			Description: "Replacement",
			Quantity:    types.NewQuantityFromFloat64(1),
			UnitPrice:   types.MustMoney("10.00"),
		},
	})

	require.Len(t, inv.Items, 1)
	assert.Equal(t, 0, inv.Items[0].SortOrder)
	assert.False(t, id.IsNil(inv.Items[0].LineID))
	assert.True(t, inv.TotalAmount.Equal(types.MustMoney("10.00")))
	assert.False(t, inv.TotalAmount.Equal(firstTotal))
}

func TestInvoiceValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validInvoice().Validate(ctx))
	})

	t.Run("missing client", func(t *testing.T) {
		inv := validInvoice()
		inv.ClientID = id.Nil()
		assert.Error(t, inv.Validate(ctx))
	})

	t.Run("due before invoice date", func(t *testing.T) {
		inv := validInvoice()
		inv.DueDate = inv.InvoiceDate.AddDate(0, 0, -1)
		assert.Error(t, inv.Validate(ctx))
	})

	t.Run("due equal to invoice date is fine", func(t *testing.T) {
		inv := validInvoice()
		inv.DueDate = inv.InvoiceDate
		assert.NoError(t, inv.Validate(ctx))
	})

	t.Run("no items", func(t *testing.T) {
		inv := NewInvoice(clientID, testNow, testDue, "tester")
		assert.Error(t, inv.Validate(ctx))
	})

	t.Run("bad currency", func(t *testing.T) {
		inv := validInvoice()
		inv.Currency = "DOLLARS"
		assert.Error(t, inv.Validate(ctx))
	})

	t.Run("negative quantity", func(t *testing.T) {
		inv := validInvoice()
		inv.Items[0].Quantity = types.NewQuantityFromFloat64(-1)
		assert.Error(t, inv.Validate(ctx))
	})

	t.Run("negative price", func(t *testing.T) {
		inv := validInvoice()
		inv.Items[0].UnitPrice = types.MustMoney("-5.00")
		assert.Error(t, inv.Validate(ctx))
	})

	t.Run("tax rate above 100", func(t *testing.T) {
		inv := validInvoice()
		inv.Items[0].TaxRate = types.MustMoney("101")
		assert.Error(t, inv.Validate(ctx))
	})

	t.Run("recurring needs frequency", func(t *testing.T) {
		inv := validInvoice()
		inv.IsRecurring = true
		assert.Error(t, inv.Validate(ctx))

		freq := FrequencyMonthly
		inv.RecurringFrequency = &freq
		assert.Error(t, inv.Validate(ctx), "end date still missing")

		end := inv.InvoiceDate.AddDate(1, 0, 0)
		inv.RecurringEndDate = &end
		assert.NoError(t, inv.Validate(ctx))
	})

	t.Run("recurring end date must follow invoice date", func(t *testing.T) {
		inv := validInvoice()
		inv.IsRecurring = true
		freq := FrequencyMonthly
		inv.RecurringFrequency = &freq
		end := inv.InvoiceDate.AddDate(0, 0, -1)
		inv.RecurringEndDate = &end
		assert.Error(t, inv.Validate(ctx))
	})
}

func TestStatusTransitions(t *testing.T) {
	t.Run("draft to pending", func(t *testing.T) {
		inv := validInvoice()
		require.NoError(t, inv.MarkAsSent(testNow))
		assert.Equal(t, StatusPending, inv.Status)
		require.NotNil(t, inv.SentAt)
		assert.Equal(t, testNow, *inv.SentAt)
	})

	t.Run("pending to paid", func(t *testing.T) {
		inv := validInvoice()
		require.NoError(t, inv.MarkAsSent(testNow))
		require.NoError(t, inv.MarkAsPaid(testNow))
		assert.Equal(t, StatusPaid, inv.Status)
		require.NotNil(t, inv.PaidAt)
	})

	t.Run("overdue to paid", func(t *testing.T) {
		inv := validInvoice()
		inv.Status = StatusOverdue
		require.NoError(t, inv.MarkAsPaid(testNow))
		assert.Equal(t, StatusPaid, inv.Status)
	})

	t.Run("mark paid twice is a no-op", func(t *testing.T) {
		inv := validInvoice()
		require.NoError(t, inv.MarkAsSent(testNow))
		require.NoError(t, inv.MarkAsPaid(testNow))
		firstPaidAt := *inv.PaidAt
		versionAfterFirst := inv.Version

		later := testNow.Add(48 * time.Hour)
		require.NoError(t, inv.MarkAsPaid(later))
		assert.Equal(t, firstPaidAt, *inv.PaidAt, "paid_at must not move")
		assert.Equal(t, versionAfterFirst, inv.Version, "no-op must not touch the entity")
	})

	t.Run("cancelled cannot be paid", func(t *testing.T) {
		inv := validInvoice()
		require.NoError(t, inv.Cancel())
		assert.Error(t, inv.MarkAsPaid(testNow))
	})

	t.Run("paid cannot be cancelled", func(t *testing.T) {
		inv := validInvoice()
		require.NoError(t, inv.MarkAsPaid(testNow))
		assert.Error(t, inv.Cancel())
	})

	t.Run("terminal cannot be sent", func(t *testing.T) {
		inv := validInvoice()
		require.NoError(t, inv.Cancel())
		assert.Error(t, inv.MarkAsSent(testNow))
	})
}

func TestCanModify(t *testing.T) {
	inv := validInvoice()
	assert.NoError(t, inv.CanModify())

	require.NoError(t, inv.MarkAsPaid(testNow))
	assert.Error(t, inv.CanModify())
}

func TestIsOverdue(t *testing.T) {
	inv := validInvoice()
	inv.Status = StatusPending
	inv.DueDate = time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)

	// Not overdue on the due date itself, only after it.
	onDueDate := time.Date(2025, 9, 10, 23, 59, 0, 0, time.UTC)
	assert.False(t, inv.IsOverdue(onDueDate))

	dayAfter := time.Date(2025, 9, 11, 0, 1, 0, 0, time.UTC)
	assert.True(t, inv.IsOverdue(dayAfter))

	// Only pending invoices go overdue.
	inv.Status = StatusDraft
	assert.False(t, inv.IsOverdue(dayAfter))
}

func TestOutstandingAndFullyPaid(t *testing.T) {
	inv := validInvoice() // total 209.00

	assert.True(t, inv.OutstandingAmount(types.Zero()).Equal(types.MustMoney("209.00")))
	assert.True(t, inv.OutstandingAmount(types.MustMoney("100.00")).Equal(types.MustMoney("109.00")))
	assert.False(t, inv.IsFullyPaid(types.MustMoney("208.99")))
	assert.True(t, inv.IsFullyPaid(types.MustMoney("209.00")))
	// Overpayment still counts as fully paid.
	assert.True(t, inv.IsFullyPaid(types.MustMoney("250.00")))
}

func TestDuplicate(t *testing.T) {
	inv := validInvoice()
	inv.Number = "INV-2025090001"
	require.NoError(t, inv.MarkAsSent(testNow))
	require.NoError(t, inv.MarkAsPaid(testNow))

	dup := inv.Duplicate("copier")

	assert.NotEqual(t, inv.ID, dup.ID)
	assert.Empty(t, dup.Number)
	assert.Equal(t, StatusDraft, dup.Status)
	assert.Nil(t, dup.SentAt)
	assert.Nil(t, dup.PaidAt)
	assert.Equal(t, "copier", dup.CreatedBy)
	require.Len(t, dup.Items, len(inv.Items))
	assert.NotEqual(t, inv.Items[0].LineID, dup.Items[0].LineID)
	assert.True(t, dup.TotalAmount.Equal(inv.TotalAmount))
}

func TestDaysUntilDueAndOverdue(t *testing.T) {
	inv := validInvoice()
	inv.Status = StatusPending
	inv.DueDate = time.Date(2025, 9, 20, 0, 0, 0, 0, time.UTC)

	now := time.Date(2025, 9, 15, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 5, inv.DaysUntilDue(now))
	assert.Equal(t, 0, inv.DaysOverdue(now))

	later := time.Date(2025, 9, 23, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, 3, inv.DaysOverdue(later))
}
