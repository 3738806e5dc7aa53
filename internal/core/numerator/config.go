// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"
	"time"
)

// ResetPeriod controls when the sequence restarts from 1.
type ResetPeriod string

const (
	ResetMonthly ResetPeriod = "month"
	ResetYearly  ResetPeriod = "year"
	ResetNever   ResetPeriod = "never"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "INV", "PAY")
	Prefix string

	// PadWidth is the minimum sequence width (default 4)
	PadWidth int

	// ResetPeriod controls sequence scoping
	ResetPeriod ResetPeriod
}

// InvoiceConfig returns the numbering configuration for invoices:
// INV-YYYYMM####, monthly sequence, 4-digit zero-padded.
func InvoiceConfig() Config {
	return Config{
		Prefix:      "INV",
		PadWidth:    4,
		ResetPeriod: ResetMonthly,
	}
}

// PaymentConfig returns the numbering configuration for payment references.
func PaymentConfig() Config {
	return Config{
		Prefix:      "PAY",
		PadWidth:    4,
		ResetPeriod: ResetMonthly,
	}
}

// Key returns the sequence key for the given period (e.g., "INV_2025_09").
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetYearly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders the final number string for a sequence value.
// Monthly sequences embed the period: PREFIX-YYYYMM + zero-padded sequence.
func (c Config) Format(period time.Time, num int64) string {
	pad := c.PadWidth
	if pad == 0 {
		pad = 4
	}

	switch c.ResetPeriod {
	case ResetMonthly:
		return fmt.Sprintf("%s-%s%0*d", c.Prefix, period.Format("200601"), pad, num)
	case ResetYearly:
		return fmt.Sprintf("%s-%s%0*d", c.Prefix, period.Format("2006"), pad, num)
	default:
		return fmt.Sprintf("%s-%0*d", c.Prefix, pad, num)
	}
}
