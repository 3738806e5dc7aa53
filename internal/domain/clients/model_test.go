package clients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
)

func TestClientValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		c := NewClient("Acme Corp", "billing@acme.example", "tester")
		assert.NoError(t, c.Validate(ctx))
	})

	t.Run("missing name", func(t *testing.T) {
		c := NewClient("   ", "billing@acme.example", "tester")
		assert.Error(t, c.Validate(ctx))
	})

	t.Run("missing email", func(t *testing.T) {
		c := NewClient("Acme Corp", "", "tester")
		assert.Error(t, c.Validate(ctx))
	})

	t.Run("malformed email", func(t *testing.T) {
		c := NewClient("Acme Corp", "not-an-email", "tester")
		assert.Error(t, c.Validate(ctx))
	})

	t.Run("negative credit limit", func(t *testing.T) {
		c := NewClient("Acme Corp", "billing@acme.example", "tester")
		c.CreditLimit = types.MustMoney("-1")
		assert.Error(t, c.Validate(ctx))
	})
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("Acme Corp", "billing@acme.example", "tester")

	assert.True(t, c.IsActive)
	assert.True(t, c.CreditLimit.IsZero())
	assert.True(t, c.OutstandingBalance.IsZero())
	assert.Equal(t, "tester", c.CreatedBy)
	assert.Equal(t, 1, c.Version)
	require.False(t, id.IsNil(c.ID))
}

func TestAvailableCredit(t *testing.T) {
	c := NewClient("Acme Corp", "billing@acme.example", "tester")
	c.CreditLimit = types.MustMoney("1000")
	c.OutstandingBalance = types.MustMoney("400")

	assert.True(t, c.AvailableCredit().Equal(types.MustMoney("600")))
	assert.False(t, c.HasExceededCreditLimit())

	// Over the limit: credit floors at zero instead of going negative.
	c.OutstandingBalance = types.MustMoney("1200")
	assert.True(t, c.AvailableCredit().IsZero())
	assert.True(t, c.HasExceededCreditLimit())

	// A balance exactly at the limit is not exceeded.
	c.OutstandingBalance = types.MustMoney("1000")
	assert.False(t, c.HasExceededCreditLimit())
	assert.True(t, c.AvailableCredit().IsZero())
}

func TestHasExceededCreditLimit_ZeroLimit(t *testing.T) {
	c := NewClient("Acme Corp", "billing@acme.example", "tester")
	assert.False(t, c.HasExceededCreditLimit())

	c.OutstandingBalance = types.MustMoney("0.01")
	assert.True(t, c.HasExceededCreditLimit())
}

func TestFullAddress(t *testing.T) {
	c := NewClient("Acme Corp", "billing@acme.example", "tester")
	assert.Empty(t, c.FullAddress())

	c.Address = "1 Main St"
	c.City = "Springfield"
	c.PostalCode = "12345"
	c.Country = "US"
	assert.Equal(t, "1 Main St, Springfield, 12345, US", c.FullAddress())
}

func TestDisplayName(t *testing.T) {
	c := NewClient("Jane Smith", "jane@acme.example", "tester")
	assert.Equal(t, "Jane Smith", c.DisplayName())

	c.CompanyName = "Acme Corp"
	assert.Equal(t, "Acme Corp", c.DisplayName())
}
