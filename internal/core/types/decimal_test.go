package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, "10.57", RoundMoney(MustMoney("10.565")).StringFixed(2))
	assert.Equal(t, "10.56", RoundMoney(MustMoney("10.564")).StringFixed(2))
	assert.Equal(t, "-10.57", RoundMoney(MustMoney("-10.565")).StringFixed(2))
}

func TestApplyPercent(t *testing.T) {
	// 200.00 at 10% -> 20.00
	assert.True(t, ApplyPercent(MustMoney("200.00"), decimal.NewFromInt(10)).Equal(MustMoney("20.00")))
	// 200.00 at 5% -> 10.00
	assert.True(t, ApplyPercent(MustMoney("200.00"), decimal.NewFromInt(5)).Equal(MustMoney("10.00")))
	// Fractional rate rounds to money scale.
	assert.True(t, ApplyPercent(MustMoney("100.00"), MustMoney("7.25")).Equal(MustMoney("7.25")))
	assert.True(t, ApplyPercent(MustMoney("33.33"), MustMoney("7.25")).Equal(MustMoney("2.42")))
}

func TestValidPercent(t *testing.T) {
	assert.True(t, ValidPercent(decimal.Zero))
	assert.True(t, ValidPercent(decimal.NewFromInt(100)))
	assert.False(t, ValidPercent(decimal.NewFromInt(101)))
	assert.False(t, ValidPercent(decimal.NewFromInt(-1)))
}

func TestQuantityConversions(t *testing.T) {
	q := NewQuantityFromFloat64(2.5)
	assert.Equal(t, int64(25000), q.Int64Scaled())
	assert.Equal(t, 2.5, q.Float64())
	assert.Equal(t, "2.5000", q.String())
	assert.True(t, q.Decimal().Equal(MustMoney("2.5")))

	neg := NewQuantityFromFloat64(-1.25)
	assert.Equal(t, "-1.2500", neg.String())
	assert.True(t, neg.IsNegative())
	assert.Equal(t, q.Abs(), q)
	assert.Equal(t, neg.Abs(), neg.Neg())
}

func TestQuantityJSON(t *testing.T) {
	q := NewQuantityFromFloat64(3.75)
	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.Equal(t, "3.7500", string(data))

	var parsed Quantity
	require.NoError(t, json.Unmarshal([]byte("2"), &parsed))
	assert.Equal(t, NewQuantityFromFloat64(2), parsed)

	require.NoError(t, json.Unmarshal([]byte(`"1.5"`), &parsed))
	assert.Equal(t, NewQuantityFromFloat64(1.5), parsed)
}
