package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "zentropay/internal/core/context"
)

func newTestJWTService() *JWTService {
	return NewJWTService(DefaultJWTConfig("test-secret-please-rotate"))
}

func TestJWTRoundTrip(t *testing.T) {
	svc := newTestJWTService()

	token, expiresAt, err := svc.GenerateAccessToken("user-123", "jane@acme.example", "Jane Smith", appctx.RoleAccountant)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", uc.UserID)
	assert.Equal(t, "jane@acme.example", uc.Email)
	assert.Equal(t, "Jane Smith", uc.Name)
	assert.Equal(t, appctx.RoleAccountant, uc.Role)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _, err := newTestJWTService().GenerateAccessToken("user-123", "jane@acme.example", "", appctx.RoleAdmin)
	require.NoError(t, err)

	other := NewJWTService(DefaultJWTConfig("a-different-secret"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	_, err := newTestJWTService().ValidateToken("not.a.jwt")
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	cfg := DefaultJWTConfig("test-secret-please-rotate")
	cfg.AccessTokenTTL = -time.Minute
	svc := NewJWTService(cfg)

	token, _, err := svc.GenerateAccessToken("user-123", "jane@acme.example", "", appctx.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}
