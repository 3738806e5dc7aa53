// Package id generates the identifiers used by every billing entity.
// IDs are UUIDv7: the leading timestamp keeps invoices and payments roughly
// insertion-ordered, which keeps PostgreSQL B-tree pages dense.
package id

import "github.com/google/uuid"

// ID identifies an entity.
type ID = uuid.UUID

// New returns a fresh time-ordered ID. On the (practically unreachable)
// failure path of NewV7 it degrades to a random v4.
func New() ID {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return v7
}

// Parse converts a string to an ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// MustParse converts a string to an ID, panicking on error. Test helper.
func MustParse(s string) ID {
	return uuid.MustParse(s)
}

// Nil returns the zero ID.
func Nil() ID {
	return uuid.Nil
}

// IsNil reports whether the ID is the zero value.
func IsNil(entityID ID) bool {
	return entityID == uuid.Nil
}
