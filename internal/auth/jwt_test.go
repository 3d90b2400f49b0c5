package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("s3cret", time.Minute)
	p := identity.Principal{ID: uuid.New(), Role: identity.RoleWorker}

	token, err := m.GenerateAccessToken(p)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)

	got, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("s3cret", time.Minute)
	p := identity.Principal{ID: uuid.New(), Role: identity.RoleClient}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTManager("other", time.Minute).GenerateAccessToken(p)
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := NewJWTManager("s3cret", -time.Minute).GenerateAccessToken(p)
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := &Claims{UserID: p.ID.String(), Role: "chef"}
		_, err := claims.Principal()
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
