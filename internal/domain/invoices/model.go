// Package invoices provides the Invoice document: financial computation,
// number generation and lifecycle state machine.
package invoices

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/entity"
	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusOverdue   Status = "overdue"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// Frequency is the recurring billing frequency.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// DefaultCurrency is used when the caller supplies none.
const DefaultCurrency = "USD"

// Invoice represents a billing invoice with its line items.
// Monetary header fields are derived from items and never set by callers.
type Invoice struct {
	entity.Base

	// Number is the unique invoice number (INV-YYYYMM####, auto-generated)
	Number string `db:"invoice_number" json:"invoiceNumber"`

	// ClientID references the billed client
	ClientID id.ID `db:"client_id" json:"clientId"`

	InvoiceDate time.Time `db:"invoice_date" json:"invoiceDate"`
	DueDate     time.Time `db:"due_date" json:"dueDate"`

	Status Status `db:"status" json:"status"`

	// Totals (derived from items)
	Subtotal       types.Money `db:"subtotal" json:"subtotal"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TotalAmount    types.Money `db:"total_amount" json:"totalAmount"`

	Notes           string `db:"notes" json:"notes,omitempty"`
	TermsConditions string `db:"terms_conditions" json:"termsConditions,omitempty"`

	// Currency is a 3-letter code; ExchangeRate carries 4 fractional digits.
	Currency     string          `db:"currency" json:"currency"`
	ExchangeRate decimal.Decimal `db:"exchange_rate" json:"exchangeRate"`

	// Recurring metadata (validation only; schedule generation is external)
	IsRecurring        bool       `db:"is_recurring" json:"isRecurring"`
	RecurringFrequency *Frequency `db:"recurring_frequency" json:"recurringFrequency,omitempty"`
	RecurringEndDate   *time.Time `db:"recurring_end_date" json:"recurringEndDate,omitempty"`

	// Lifecycle timestamps, set only by transitions
	SentAt *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	PaidAt *time.Time `db:"paid_at" json:"paidAt,omitempty"`

	// Table part: line items, ordered by sort_order
	Items []Item `db:"-" json:"items"`
}

// Item is a single invoice line. Derived fields are recomputed before every
// persist and never trusted from caller input.
type Item struct {
	LineID    id.ID `db:"line_id" json:"lineId"`
	SortOrder int   `db:"sort_order" json:"sortOrder"`

	Description string `db:"description" json:"description"`
	Details     string `db:"details" json:"details,omitempty"`

	Quantity     types.Quantity  `db:"quantity" json:"quantity"`
	UnitPrice    types.Money     `db:"unit_price" json:"unitPrice"`
	TaxRate      decimal.Decimal `db:"tax_rate" json:"taxRate"`
	DiscountRate decimal.Decimal `db:"discount_rate" json:"discountRate"`

	// Derived
	LineTotal      types.Money `db:"line_total" json:"lineTotal"`
	DiscountAmount types.Money `db:"discount_amount" json:"discountAmount"`
	TaxAmount      types.Money `db:"tax_amount" json:"taxAmount"`
	FinalAmount    types.Money `db:"final_amount" json:"finalAmount"`
}

// Recalculate derives the monetary fields from quantity, price and rates.
// Idempotent; tax applies to the post-discount base.
func (it *Item) Recalculate() {
	it.LineTotal = types.RoundMoney(it.Quantity.Decimal().Mul(it.UnitPrice))
	it.DiscountAmount = types.ApplyPercent(it.LineTotal, it.DiscountRate)
	taxable := it.LineTotal.Sub(it.DiscountAmount)
	it.TaxAmount = types.ApplyPercent(taxable, it.TaxRate)
	it.FinalAmount = taxable.Add(it.TaxAmount)
}

// Validate checks a single line's invariants. lineNo is 1-based for messages.
func (it *Item) Validate(lineNo int) error {
	if it.Description == "" {
		return apperror.NewValidation("item description is required").
			WithDetail("field", "items").
			WithDetail("lineNo", lineNo)
	}
	if !it.Quantity.IsPositive() {
		return apperror.NewValidation("item quantity must be positive").
			WithDetail("field", "items").
			WithDetail("lineNo", lineNo)
	}
	if it.UnitPrice.IsNegative() {
		return apperror.NewValidation("item unit price cannot be negative").
			WithDetail("field", "items").
			WithDetail("lineNo", lineNo)
	}
	if !types.ValidPercent(it.TaxRate) {
		return apperror.NewValidation("item tax rate must be between 0 and 100").
			WithDetail("field", "items").
			WithDetail("lineNo", lineNo)
	}
	if !types.ValidPercent(it.DiscountRate) {
		return apperror.NewValidation("item discount rate must be between 0 and 100").
			WithDetail("field", "items").
			WithDetail("lineNo", lineNo)
	}
	return nil
}

// NewInvoice creates a draft invoice for a client.
func NewInvoice(clientID id.ID, invoiceDate, dueDate time.Time, createdBy string) *Invoice {
	inv := &Invoice{
		Base:         entity.NewBase(),
		ClientID:     clientID,
		InvoiceDate:  invoiceDate,
		DueDate:      dueDate,
		Status:       StatusDraft,
		Currency:     DefaultCurrency,
		ExchangeRate: decimal.NewFromInt(1),
		Items:        make([]Item, 0),
	}
	inv.CreatedBy = createdBy
	return inv
}

// AddItem appends a line and recomputes line and invoice totals.
func (inv *Invoice) AddItem(it Item) {
	if id.IsNil(it.LineID) {
		it.LineID = id.New()
	}
	it.SortOrder = len(inv.Items)
	it.Recalculate()
	inv.Items = append(inv.Items, it)
	inv.RecalculateTotals()
}

// ReplaceItems swaps the whole item set (edit-invoice flow) and recomputes.
// Sort order follows the given slice order.
func (inv *Invoice) ReplaceItems(items []Item) {
	inv.Items = make([]Item, 0, len(items))
	for i := range items {
		it := items[i]
		if id.IsNil(it.LineID) {
			it.LineID = id.New()
		}
		it.SortOrder = i
		it.Recalculate()
		inv.Items = append(inv.Items, it)
	}
	inv.RecalculateTotals()
}

// RecalculateTotals derives header totals from line items:
//
//	subtotal        = sum(line_total)
//	tax_amount      = sum(tax_amount)
//	discount_amount = sum(discount_amount)
//	total_amount    = subtotal + tax_amount - discount_amount
func (inv *Invoice) RecalculateTotals() {
	subtotal := types.Zero()
	tax := types.Zero()
	discount := types.Zero()

	for i := range inv.Items {
		subtotal = subtotal.Add(inv.Items[i].LineTotal)
		tax = tax.Add(inv.Items[i].TaxAmount)
		discount = discount.Add(inv.Items[i].DiscountAmount)
	}

	inv.Subtotal = subtotal
	inv.TaxAmount = tax
	inv.DiscountAmount = discount
	inv.TotalAmount = subtotal.Add(tax).Sub(discount)
}

// Validate implements entity.Validatable.
func (inv *Invoice) Validate(ctx context.Context) error {
	if id.IsNil(inv.ClientID) {
		return apperror.NewValidation("client is required").
			WithDetail("field", "clientId")
	}
	if inv.InvoiceDate.IsZero() {
		return apperror.NewValidation("invoice date is required").
			WithDetail("field", "invoiceDate")
	}
	if inv.DueDate.IsZero() {
		return apperror.NewValidation("due date is required").
			WithDetail("field", "dueDate")
	}
	if inv.DueDate.Before(inv.InvoiceDate) {
		return apperror.NewValidation("due date must be on or after invoice date").
			WithDetail("field", "dueDate")
	}
	if !inv.Status.Valid() {
		return apperror.NewValidation("invalid invoice status").
			WithDetail("field", "status").
			WithDetail("value", string(inv.Status))
	}
	if len(inv.Currency) != 3 {
		return apperror.NewValidation("currency must be a 3-letter code").
			WithDetail("field", "currency")
	}
	if !inv.ExchangeRate.IsPositive() {
		return apperror.NewValidation("exchange rate must be positive").
			WithDetail("field", "exchangeRate")
	}
	if len(inv.Items) == 0 {
		return apperror.NewValidation("at least one item is required").
			WithDetail("field", "items")
	}
	for i := range inv.Items {
		if err := inv.Items[i].Validate(i + 1); err != nil {
			return err
		}
	}
	if inv.IsRecurring {
		if inv.RecurringFrequency == nil || !inv.RecurringFrequency.Valid() {
			return apperror.NewValidation("recurring frequency must be daily, weekly, monthly or yearly").
				WithDetail("field", "recurringFrequency")
		}
		if inv.RecurringEndDate == nil || !inv.RecurringEndDate.After(inv.InvoiceDate) {
			return apperror.NewValidation("recurring end date must be after invoice date").
				WithDetail("field", "recurringEndDate")
		}
	}
	return nil
}

// CanModify checks the edit guard: a paid invoice accepts no header or item
// edits.
func (inv *Invoice) CanModify() error {
	if inv.Status == StatusPaid {
		return apperror.NewInvoicePaid(inv.ID.String())
	}
	return nil
}

// MarkAsSent transitions a non-terminal invoice to pending and stamps sent_at.
func (inv *Invoice) MarkAsSent(now time.Time) error {
	if inv.Status.IsTerminal() {
		return apperror.NewInvalidTransition(string(inv.Status), string(StatusPending))
	}
	sentAt := now.UTC()
	inv.Status = StatusPending
	inv.SentAt = &sentAt
	return nil
}

// MarkAsPaid transitions a non-terminal invoice to paid and stamps paid_at.
// Calling it on an already-paid invoice is a no-op: paid_at keeps its original
// value. It deliberately does not reconcile against payment records.
func (inv *Invoice) MarkAsPaid(now time.Time) error {
	if inv.Status == StatusPaid {
		return nil
	}
	if inv.Status == StatusCancelled {
		return apperror.NewInvalidTransition(string(inv.Status), string(StatusPaid))
	}
	paidAt := now.UTC()
	inv.Status = StatusPaid
	inv.PaidAt = &paidAt
	return nil
}

// Cancel transitions a non-terminal invoice to cancelled.
func (inv *Invoice) Cancel() error {
	if inv.Status.IsTerminal() {
		return apperror.NewInvalidTransition(string(inv.Status), string(StatusCancelled))
	}
	inv.Status = StatusCancelled
	return nil
}

// IsOverdue is the read-time overdue predicate: pending and past due as of
// now, regardless of whether the sweep has already flipped the status.
func (inv *Invoice) IsOverdue(now time.Time) bool {
	return inv.Status == StatusPending && inv.DueDate.Before(DateOnly(now))
}

// DaysUntilDue returns days from now until the due date (negative if past).
func (inv *Invoice) DaysUntilDue(now time.Time) int {
	return int(inv.DueDate.Sub(DateOnly(now)).Hours() / 24)
}

// DaysOverdue returns how many days past due a pending invoice is, 0 otherwise.
func (inv *Invoice) DaysOverdue(now time.Time) int {
	if !inv.IsOverdue(now) {
		return 0
	}
	return int(DateOnly(now).Sub(inv.DueDate).Hours() / 24)
}

// OutstandingAmount returns total minus the amount covered by payments.
func (inv *Invoice) OutstandingAmount(paidAmount types.Money) types.Money {
	return inv.TotalAmount.Sub(paidAmount)
}

// IsFullyPaid reports whether payments cover the full total.
// Note: independent of Status; see MarkAsPaid.
func (inv *Invoice) IsFullyPaid(paidAmount types.Money) bool {
	return !inv.OutstandingAmount(paidAmount).IsPositive()
}

// Duplicate returns a fresh draft copy of the invoice: new identity, no
// number (regenerated on create), cleared lifecycle timestamps, copied items.
func (inv *Invoice) Duplicate(createdBy string) *Invoice {
	dup := NewInvoice(inv.ClientID, inv.InvoiceDate, inv.DueDate, createdBy)
	dup.Notes = inv.Notes
	dup.TermsConditions = inv.TermsConditions
	dup.Currency = inv.Currency
	dup.ExchangeRate = inv.ExchangeRate
	dup.IsRecurring = inv.IsRecurring
	if inv.RecurringFrequency != nil {
		f := *inv.RecurringFrequency
		dup.RecurringFrequency = &f
	}
	if inv.RecurringEndDate != nil {
		d := *inv.RecurringEndDate
		dup.RecurringEndDate = &d
	}

	items := make([]Item, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = Item{
			Description:  it.Description,
			Details:      it.Details,
			Quantity:     it.Quantity,
			UnitPrice:    it.UnitPrice,
			TaxRate:      it.TaxRate,
			DiscountRate: it.DiscountRate,
		}
	}
	dup.ReplaceItems(items)
	return dup
}

// DateOnly truncates a timestamp to its UTC calendar date.
// Due-date comparisons are date-granular, like the rest of the billing flow.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
