package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plate-service/internal/model"
)

func TestParser_RoundTrip(t *testing.T) {
	p := NewParser("secret")
	userID := uuid.New()
	tenantID := uuid.New()

	token, err := p.Sign(&Claims{
		UserID:   userID,
		Role:     model.RoleTenant,
		TenantID: &tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	claims, err := p.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, model.RoleTenant, claims.Role)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, tenantID, *claims.TenantID)
}

func TestParser_Rejects(t *testing.T) {
	p := NewParser("secret")
	other := NewParser("other")

	expired, err := p.Sign(&Claims{
		UserID: uuid.New(),
		Role:   model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	require.NoError(t, err)

	wrongKey, err := other.Sign(&Claims{UserID: uuid.New(), Role: model.RoleAdmin})
	require.NoError(t, err)

	noRole, err := p.Sign(&Claims{UserID: uuid.New(), Role: "driver"})
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.New(), Role: model.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":   "not-a-token",
		"expired":   expired,
		"wrong key": wrongKey,
		"bad role":  noRole,
		"none alg":  noneAlg,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := p.Parse(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
