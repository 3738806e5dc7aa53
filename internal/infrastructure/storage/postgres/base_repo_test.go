package postgres

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentropay/internal/core/apperror"
)

func TestMapConstraintErr(t *testing.T) {
	repo := &BaseRepo[*mockEntity]{entityName: "invoice"}

	t.Run("unique violation maps to duplicate", func(t *testing.T) {
		cause := &pgconn.PgError{
			Code:           "23505",
			ConstraintName: "invoices_invoice_number_key",
		}
		mapped := repo.mapConstraintErr(fmt.Errorf("insert invoices: %w", cause))
		require.NotNil(t, mapped)

		appErr, ok := apperror.AsAppError(mapped)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeDuplicate, appErr.Code)
		assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	})

	t.Run("foreign key violation maps to conflict", func(t *testing.T) {
		cause := &pgconn.PgError{
			Code:           "23503",
			ConstraintName: "payments_invoice_id_fkey",
		}
		mapped := repo.mapConstraintErr(fmt.Errorf("delete invoices: %w", cause))
		require.NotNil(t, mapped)

		appErr, ok := apperror.AsAppError(mapped)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeConflict, appErr.Code)
		assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
		assert.Equal(t, "payments_invoice_id_fkey", appErr.Details["constraint"])
	})

	t.Run("other errors are left alone", func(t *testing.T) {
		assert.Nil(t, repo.mapConstraintErr(fmt.Errorf("connection refused")))
		assert.Nil(t, repo.mapConstraintErr(&pgconn.PgError{Code: "40001"}))
	})
}
