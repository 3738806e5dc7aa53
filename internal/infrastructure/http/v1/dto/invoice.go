package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
	"zentropay/internal/domain/invoices"
)

// --- Request DTOs ---

// InvoiceItemRequest represents a line item in create/update requests.
// Amounts are always recomputed server-side from quantity, price and rates.
type InvoiceItemRequest struct {
	Description  string           `json:"description" binding:"required"`
	Details      string           `json:"details,omitempty"`
	Quantity     types.Quantity   `json:"quantity" binding:"required"`
	UnitPrice    decimal.Decimal  `json:"unitPrice" binding:"required"`
	TaxRate      *decimal.Decimal `json:"taxRate,omitempty"`
	DiscountRate *decimal.Decimal `json:"discountRate,omitempty"`
}

func (r *InvoiceItemRequest) toItem() invoices.Item {
	it := invoices.Item{
		Description: r.Description,
		Details:     r.Details,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
	}
	if r.TaxRate != nil {
		it.TaxRate = *r.TaxRate
	}
	if r.DiscountRate != nil {
		it.DiscountRate = *r.DiscountRate
	}
	return it
}

// CreateInvoiceRequest represents a request to create an invoice.
// The invoice number is always generated server-side.
type CreateInvoiceRequest struct {
	ClientID           string               `json:"clientId" binding:"required,uuid"`
	InvoiceDate        time.Time            `json:"invoiceDate" binding:"required"`
	DueDate            time.Time            `json:"dueDate" binding:"required"`
	Status             string               `json:"status,omitempty"`
	Currency           string               `json:"currency,omitempty"`
	ExchangeRate       *decimal.Decimal     `json:"exchangeRate,omitempty"`
	Notes              string               `json:"notes,omitempty"`
	TermsConditions    string               `json:"termsConditions,omitempty"`
	IsRecurring        bool                 `json:"isRecurring,omitempty"`
	RecurringFrequency string               `json:"recurringFrequency,omitempty"`
	RecurringEndDate   *time.Time           `json:"recurringEndDate,omitempty"`
	Items              []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ToEntity converts request to domain entity.
func (r *CreateInvoiceRequest) ToEntity(createdBy string) *invoices.Invoice {
	clientID, _ := id.Parse(r.ClientID)

	inv := invoices.NewInvoice(clientID, r.InvoiceDate, r.DueDate, createdBy)
	if r.Status != "" {
		inv.Status = invoices.Status(r.Status)
	}
	if r.Currency != "" {
		inv.Currency = r.Currency
	}
	if r.ExchangeRate != nil {
		inv.ExchangeRate = types.RoundRate(*r.ExchangeRate)
	}
	inv.Notes = r.Notes
	inv.TermsConditions = r.TermsConditions
	inv.IsRecurring = r.IsRecurring
	if r.RecurringFrequency != "" {
		freq := invoices.Frequency(r.RecurringFrequency)
		inv.RecurringFrequency = &freq
	}
	inv.RecurringEndDate = r.RecurringEndDate

	items := make([]invoices.Item, 0, len(r.Items))
	for i := range r.Items {
		items = append(items, r.Items[i].toItem())
	}
	inv.ReplaceItems(items)

	return inv
}

// UpdateInvoiceRequest represents a request to update an invoice.
// Status, number and lifecycle timestamps are never updated here; status
// changes go through the dedicated transition endpoints.
type UpdateInvoiceRequest struct {
	ClientID           *string              `json:"clientId,omitempty"`
	InvoiceDate        *time.Time           `json:"invoiceDate,omitempty"`
	DueDate            *time.Time           `json:"dueDate,omitempty"`
	Currency           *string              `json:"currency,omitempty"`
	ExchangeRate       *decimal.Decimal     `json:"exchangeRate,omitempty"`
	Notes              *string              `json:"notes,omitempty"`
	TermsConditions    *string              `json:"termsConditions,omitempty"`
	IsRecurring        *bool                `json:"isRecurring,omitempty"`
	RecurringFrequency *string              `json:"recurringFrequency,omitempty"`
	RecurringEndDate   *time.Time           `json:"recurringEndDate,omitempty"`
	Items              []InvoiceItemRequest `json:"items,omitempty"`
	Version            int                  `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateInvoiceRequest) ApplyTo(inv *invoices.Invoice) {
	if r.ClientID != nil {
		if clientID, err := id.Parse(*r.ClientID); err == nil {
			inv.ClientID = clientID
		}
	}
	if r.InvoiceDate != nil {
		inv.InvoiceDate = *r.InvoiceDate
	}
	if r.DueDate != nil {
		inv.DueDate = *r.DueDate
	}
	if r.Currency != nil {
		inv.Currency = *r.Currency
	}
	if r.ExchangeRate != nil {
		inv.ExchangeRate = types.RoundRate(*r.ExchangeRate)
	}
	if r.Notes != nil {
		inv.Notes = *r.Notes
	}
	if r.TermsConditions != nil {
		inv.TermsConditions = *r.TermsConditions
	}
	if r.IsRecurring != nil {
		inv.IsRecurring = *r.IsRecurring
	}
	if r.RecurringFrequency != nil {
		if *r.RecurringFrequency == "" {
			inv.RecurringFrequency = nil
		} else {
			freq := invoices.Frequency(*r.RecurringFrequency)
			inv.RecurringFrequency = &freq
		}
	}
	if r.RecurringEndDate != nil {
		inv.RecurringEndDate = r.RecurringEndDate
	}

	if r.Items != nil {
		items := make([]invoices.Item, 0, len(r.Items))
		for i := range r.Items {
			items = append(items, r.Items[i].toItem())
		}
		inv.ReplaceItems(items)
	}

	inv.SetVersion(r.Version)
}

// DuplicateInvoiceRequest for the copy operation. Empty body is fine.
type DuplicateInvoiceRequest struct{}

// --- Response DTOs ---

// StatusChangeResponse reports the result of a status transition.
type StatusChangeResponse struct {
	ID     string `json:"id"`
	Number string `json:"invoiceNumber"`
	Status string `json:"status"`
}

// NewStatusChangeResponse builds a transition result.
func NewStatusChangeResponse(inv *invoices.Invoice) StatusChangeResponse {
	return StatusChangeResponse{
		ID:     inv.ID.String(),
		Number: inv.Number,
		Status: string(inv.Status),
	}
}

// OverdueSweepResponse reports how many invoices the sweep transitioned.
type OverdueSweepResponse struct {
	MarkedOverdue int64     `json:"markedOverdue"`
	AsOf          time.Time `json:"asOf"`
}
