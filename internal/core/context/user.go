// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Roles recognized by the platform.
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleClient     = "client"
)

// UserContext contains authenticated user information.
type UserContext struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetUserEmail returns the authenticated email or empty string.
func GetUserEmail(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.Email
	}
	return ""
}

// HasRole checks if user has specific role.
func HasRole(ctx context.Context, role string) bool {
	u := GetUser(ctx)
	return u != nil && u.Role == role
}

// IsStaff reports whether the user may manage clients and invoices.
func IsStaff(ctx context.Context) bool {
	u := GetUser(ctx)
	if u == nil {
		return false
	}
	return u.Role == RoleAdmin || u.Role == RoleAccountant
}
