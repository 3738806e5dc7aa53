package invoices

import (
	"fmt"
	"time"

	"zentropay/internal/core/types"
	"zentropay/internal/domain/clients"
)

// CompanyProfile identifies the issuing company on rendered documents.
// Values come from configuration, not the database.
type CompanyProfile struct {
	Name       string `json:"name"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	TaxID      string `json:"taxId,omitempty"`
	Website    string `json:"website,omitempty"`
}

// DocumentParty is the billed party as it appears on a document.
type DocumentParty struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName,omitempty"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	TaxID       string `json:"taxId,omitempty"`
}

// Document is the finalized payload handed to the rendering service.
// Rendering itself happens outside this system; the payload carries
// everything a template needs, already computed.
type Document struct {
	Filename    string         `json:"filename"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Company     CompanyProfile `json:"company"`
	BillTo      DocumentParty  `json:"billTo"`
	Invoice     *Invoice       `json:"invoice"`
	PaidAmount  types.Money    `json:"paidAmount"`
	AmountDue   types.Money    `json:"amountDue"`
}

// BuildDocument assembles the rendering payload for an invoice.
// paidAmount is the sum of recorded payments for the invoice.
func BuildDocument(inv *Invoice, client *clients.Client, company CompanyProfile, paidAmount types.Money, now time.Time) *Document {
	due := inv.OutstandingAmount(paidAmount)
	if due.IsNegative() {
		due = types.Zero()
	}
	return &Document{
		Filename:    fmt.Sprintf("invoice-%s.pdf", inv.Number),
		GeneratedAt: now.UTC(),
		Company:     company,
		BillTo: DocumentParty{
			Name:        client.Name,
			CompanyName: client.CompanyName,
			Email:       client.Email,
			Phone:       client.Phone,
			Address:     client.FullAddress(),
			TaxID:       client.TaxID,
		},
		Invoice:    inv,
		PaidAmount: paidAmount,
		AmountDue:  due,
	}
}
