// Package payments records money received against invoices and derives
// paid/outstanding amounts.
package payments

import (
	"context"
	"time"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/entity"
	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
)

// Method is the payment instrument.
type Method string

const (
	MethodCash         Method = "cash"
	MethodCheck        Method = "check"
	MethodCreditCard   Method = "credit_card"
	MethodBankTransfer Method = "bank_transfer"
	MethodPayPal       Method = "paypal"
	MethodStripe       Method = "stripe"
	MethodOther        Method = "other"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCheck, MethodCreditCard, MethodBankTransfer,
		MethodPayPal, MethodStripe, MethodOther:
		return true
	}
	return false
}

// Status is the processing state of a payment record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// Payment is a single payment applied to an invoice.
type Payment struct {
	entity.Base

	// Number is the unique payment number (PAY-YYYYMM####, auto-generated)
	Number string `db:"payment_number" json:"paymentNumber"`

	InvoiceID id.ID `db:"invoice_id" json:"invoiceId"`

	// ClientID is copied from the invoice at record time, never from input
	ClientID id.ID `db:"client_id" json:"clientId"`

	Amount      types.Money `db:"amount" json:"amount"`
	PaymentDate time.Time   `db:"payment_date" json:"paymentDate"`

	Method    Method `db:"payment_method" json:"paymentMethod"`
	Status    Status `db:"status" json:"status"`
	Reference string `db:"reference" json:"reference,omitempty"`
	Notes     string `db:"notes" json:"notes,omitempty"`
}

// NewPayment creates a completed payment record.
func NewPayment(invoiceID id.ID, amount types.Money, method Method, createdBy string) *Payment {
	p := &Payment{
		Base:        entity.NewBase(),
		InvoiceID:   invoiceID,
		Amount:      amount,
		PaymentDate: time.Now().UTC(),
		Method:      method,
		Status:      StatusCompleted,
	}
	p.CreatedBy = createdBy
	return p
}

// Validate implements entity.Validatable.
func (p *Payment) Validate(ctx context.Context) error {
	if id.IsNil(p.InvoiceID) {
		return apperror.NewValidation("invoice is required").
			WithDetail("field", "invoiceId")
	}
	if !p.Amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	if p.PaymentDate.IsZero() {
		return apperror.NewValidation("payment date is required").
			WithDetail("field", "paymentDate")
	}
	if !p.Method.Valid() {
		return apperror.NewValidation("invalid payment method").
			WithDetail("field", "paymentMethod").
			WithDetail("value", string(p.Method))
	}
	if !p.Status.Valid() {
		return apperror.NewValidation("invalid payment status").
			WithDetail("field", "status").
			WithDetail("value", string(p.Status))
	}
	return nil
}

// Summary is the per-invoice payment aggregate. PaidAmount sums every
// recorded payment row regardless of its status.
type Summary struct {
	InvoiceID         id.ID       `json:"invoiceId"`
	PaidAmount        types.Money `json:"paidAmount"`
	OutstandingAmount types.Money `json:"outstandingAmount"`
	FullyPaid         bool        `json:"fullyPaid"`
}
