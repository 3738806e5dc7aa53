// Package apperror defines the error type every service layer returns.
// Handlers translate an AppError straight into a JSON response, so
// anything a client may see must be wrapped in one.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes grouped by the HTTP status they map to.
const (
	// 5xx
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// 400
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// 422
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"
	CodeInvoicePaid            = "INVOICE_ALREADY_PAID"
	CodeInvalidTransition      = "INVALID_STATUS_TRANSITION"
	CodeClientHasInvoices      = "CLIENT_HAS_INVOICES"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"

	// 401, 403
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// 404
	CodeNotFound = "NOT_FOUND"

	// 409
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError carries a code, a client-safe message, and optional structured
// details. The wrapped cause stays server-side and never reaches JSON.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a key-value pair to the details map.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// NewValidation reports malformed or missing input (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound reports a missing entity (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422). The
// request was well-formed but the entity's state forbids the operation.
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvoicePaid creates an error for edits/deletes against a paid invoice.
func NewInvoicePaid(invoiceID any) *AppError {
	return &AppError{
		Code:       CodeInvoicePaid,
		Message:    "Invoice is paid and can no longer be modified",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"invoice_id": invoiceID, "status": "paid"},
	}
}

// NewInvalidTransition creates an error for a disallowed status transition.
func NewInvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidTransition,
		Message:    fmt.Sprintf("Cannot transition invoice from %s to %s", from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"from": from, "to": to},
	}
}

// NewClientHasInvoices creates an error for deleting a referenced client.
func NewClientHasInvoices(clientID any, count int64) *AppError {
	return &AppError{
		Code:       CodeClientHasInvoices,
		Message:    "Cannot delete client with existing invoices",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"client_id": clientID, "invoice_count": count},
	}
}

// NewConcurrentModification reports a version check failure on update (409).
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal wraps an unexpected error. The cause is logged,
// the client only sees a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized reports a missing or invalid credential (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden reports an authenticated caller lacking permission (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict reports a state conflict (409).
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate reports a unique constraint violation (409).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// IsAppError reports whether err has an AppError in its chain.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts the AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus maps any error to a response status. Unclassified
// errors answer 500.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func hasCode(err error, codes ...string) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	for _, code := range codes {
		if appErr.Code == code {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsConflict reports whether err is a conflict or duplicate.
func IsConflict(err error) bool {
	return hasCode(err, CodeConflict, CodeDuplicate)
}

// IsConcurrentModification reports whether err is a version conflict.
func IsConcurrentModification(err error) bool {
	return hasCode(err, CodeConcurrentModification)
}
