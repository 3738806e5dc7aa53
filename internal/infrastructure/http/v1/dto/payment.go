package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"zentropay/internal/core/id"
	"zentropay/internal/domain/payments"
)

// --- Request DTOs ---

// RecordPaymentRequest represents a request to record a payment.
// The payment number is always generated server-side.
type RecordPaymentRequest struct {
	InvoiceID   string          `json:"invoiceId" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate *time.Time      `json:"paymentDate,omitempty"`
	Method      string          `json:"method" binding:"required"`
	Status      string          `json:"status,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *RecordPaymentRequest) ToEntity(createdBy string) *payments.Payment {
	invoiceID, _ := id.Parse(r.InvoiceID)

	p := payments.NewPayment(invoiceID, r.Amount, payments.Method(r.Method), createdBy)
	if r.PaymentDate != nil {
		p.PaymentDate = *r.PaymentDate
	}
	if r.Status != "" {
		p.Status = payments.Status(r.Status)
	}
	p.Reference = r.Reference
	p.Notes = r.Notes
	return p
}
