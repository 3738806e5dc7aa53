package dto

import (
	"github.com/shopspring/decimal"

	"zentropay/internal/domain/clients"
)

// --- Request DTOs ---

// CreateClientRequest represents a request to create a client.
type CreateClientRequest struct {
	Name        string           `json:"name" binding:"required"`
	Email       string           `json:"email" binding:"required,email"`
	Phone       string           `json:"phone,omitempty"`
	Address     string           `json:"address,omitempty"`
	City        string           `json:"city,omitempty"`
	State       string           `json:"state,omitempty"`
	Country     string           `json:"country,omitempty"`
	PostalCode  string           `json:"postalCode,omitempty"`
	CompanyName string           `json:"companyName,omitempty"`
	TaxID       string           `json:"taxId,omitempty"`
	Website     string           `json:"website,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	CreditLimit *decimal.Decimal `json:"creditLimit,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateClientRequest) ToEntity(createdBy string) *clients.Client {
	c := clients.NewClient(r.Name, r.Email, createdBy)
	c.Phone = r.Phone
	c.Address = r.Address
	c.City = r.City
	c.State = r.State
	c.Country = r.Country
	c.PostalCode = r.PostalCode
	c.CompanyName = r.CompanyName
	c.TaxID = r.TaxID
	c.Website = r.Website
	c.Notes = r.Notes
	if r.CreditLimit != nil {
		c.CreditLimit = *r.CreditLimit
	}
	return c
}

// UpdateClientRequest represents a request to update a client.
type UpdateClientRequest struct {
	Name        *string          `json:"name,omitempty"`
	Email       *string          `json:"email,omitempty"`
	Phone       *string          `json:"phone,omitempty"`
	Address     *string          `json:"address,omitempty"`
	City        *string          `json:"city,omitempty"`
	State       *string          `json:"state,omitempty"`
	Country     *string          `json:"country,omitempty"`
	PostalCode  *string          `json:"postalCode,omitempty"`
	CompanyName *string          `json:"companyName,omitempty"`
	TaxID       *string          `json:"taxId,omitempty"`
	Website     *string          `json:"website,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	CreditLimit *decimal.Decimal `json:"creditLimit,omitempty"`
	IsActive    *bool            `json:"isActive,omitempty"`
	Version     int              `json:"version" binding:"required,min=1"`
}

// ApplyTo applies updates to an existing entity.
func (r *UpdateClientRequest) ApplyTo(c *clients.Client) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Email != nil {
		c.Email = *r.Email
	}
	if r.Phone != nil {
		c.Phone = *r.Phone
	}
	if r.Address != nil {
		c.Address = *r.Address
	}
	if r.City != nil {
		c.City = *r.City
	}
	if r.State != nil {
		c.State = *r.State
	}
	if r.Country != nil {
		c.Country = *r.Country
	}
	if r.PostalCode != nil {
		c.PostalCode = *r.PostalCode
	}
	if r.CompanyName != nil {
		c.CompanyName = *r.CompanyName
	}
	if r.TaxID != nil {
		c.TaxID = *r.TaxID
	}
	if r.Website != nil {
		c.Website = *r.Website
	}
	if r.Notes != nil {
		c.Notes = *r.Notes
	}
	if r.CreditLimit != nil {
		c.CreditLimit = *r.CreditLimit
	}
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	c.SetVersion(r.Version)
}
