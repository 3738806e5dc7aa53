// Package clients provides the billed-party directory and the cached
// outstanding-balance aggregate.
package clients

import (
	"context"
	"net/mail"
	"strings"

	"zentropay/internal/core/apperror"
	"zentropay/internal/core/entity"
	"zentropay/internal/core/types"
)

// Client is a billed party. OutstandingBalance is a cached aggregate over the
// client's pending and overdue invoices; it is refreshed explicitly, not on
// every read.
type Client struct {
	entity.Base

	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
	Phone string `db:"phone" json:"phone,omitempty"`

	Address    string `db:"address" json:"address,omitempty"`
	City       string `db:"city" json:"city,omitempty"`
	State      string `db:"state" json:"state,omitempty"`
	Country    string `db:"country" json:"country,omitempty"`
	PostalCode string `db:"postal_code" json:"postalCode,omitempty"`

	CompanyName string `db:"company_name" json:"companyName,omitempty"`
	TaxID       string `db:"tax_id" json:"taxId,omitempty"`
	Website     string `db:"website" json:"website,omitempty"`
	Notes       string `db:"notes" json:"notes,omitempty"`

	CreditLimit        types.Money `db:"credit_limit" json:"creditLimit"`
	OutstandingBalance types.Money `db:"outstanding_balance" json:"outstandingBalance"`

	IsActive bool `db:"is_active" json:"isActive"`
}

// NewClient creates an active client with zero balances.
func NewClient(name, email, createdBy string) *Client {
	c := &Client{
		Base:               entity.NewBase(),
		Name:               name,
		Email:              email,
		CreditLimit:        types.Zero(),
		OutstandingBalance: types.Zero(),
		IsActive:           true,
	}
	c.CreatedBy = createdBy
	return c
}

// Validate implements entity.Validatable.
func (c *Client) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("client name is required").
			WithDetail("field", "name")
	}
	if c.Email == "" {
		return apperror.NewValidation("client email is required").
			WithDetail("field", "email")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return apperror.NewValidation("client email is invalid").
			WithDetail("field", "email").
			WithDetail("value", c.Email)
	}
	if c.CreditLimit.IsNegative() {
		return apperror.NewValidation("credit limit cannot be negative").
			WithDetail("field", "creditLimit")
	}
	return nil
}

// AvailableCredit returns credit_limit - outstanding_balance, floored at zero.
func (c *Client) AvailableCredit() types.Money {
	avail := c.CreditLimit.Sub(c.OutstandingBalance)
	if avail.IsNegative() {
		return types.Zero()
	}
	return avail
}

// HasExceededCreditLimit reports whether the outstanding balance is strictly
// above the credit limit. A zero limit never reads as exceeded for a zero
// balance.
func (c *Client) HasExceededCreditLimit() bool {
	return c.OutstandingBalance.GreaterThan(c.CreditLimit)
}

// FullAddress joins the non-empty address parts with commas.
func (c *Client) FullAddress() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{c.Address, c.City, c.State, c.PostalCode, c.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// DisplayName prefers the company name over the contact name.
func (c *Client) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	return c.Name
}
