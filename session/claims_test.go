package session_test

import (
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/taxbase/metricshub/internal/errors"
	"github.com/taxbase/metricshub/session"
)

// buildUnsignedToken mints a structurally valid JWT. The signature key is
// irrelevant: adoption never verifies it.
func buildUnsignedToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims(claims)).
		SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return token
}

func TestDecodeExternalToken(t *testing.T) {
	t.Run("maps the hub claim vocabulary", func(t *testing.T) {
		raw := buildUnsignedToken(t, map[string]any{
			"email":     "ana@taxbase.app",
			"sub":       "ana-id",
			"nome":      "Ana Souza",
			"permissao": "admin",
		})

		user, err := session.DecodeExternalToken(raw)
		require.NoError(t, err)
		require.Equal(t, "ana@taxbase.app", user.Username)
		require.Equal(t, "Ana Souza", user.DisplayName)
		require.Equal(t, session.RoleAdmin, user.Role)
	})

	t.Run("falls back to sub when the email claim is missing", func(t *testing.T) {
		raw := buildUnsignedToken(t, map[string]any{"sub": "ana-id"})

		user, err := session.DecodeExternalToken(raw)
		require.NoError(t, err)
		require.Equal(t, "ana-id", user.Username)
		require.Equal(t, "ana-id", user.DisplayName)
	})

	t.Run("admin_master maps to admin", func(t *testing.T) {
		raw := buildUnsignedToken(t, map[string]any{"sub": "x", "permissao": "admin_master"})

		user, err := session.DecodeExternalToken(raw)
		require.NoError(t, err)
		require.Equal(t, session.RoleAdmin, user.Role)
	})

	t.Run("unrecognised permission degrades to viewer", func(t *testing.T) {
		raw := buildUnsignedToken(t, map[string]any{"sub": "x", "permissao": "gerente"})

		user, err := session.DecodeExternalToken(raw)
		require.NoError(t, err)
		require.Equal(t, session.RoleViewer, user.Role)
	})

	t.Run("role claim is honoured when permissao is absent", func(t *testing.T) {
		raw := buildUnsignedToken(t, map[string]any{"sub": "x", "role": "admin"})

		user, err := session.DecodeExternalToken(raw)
		require.NoError(t, err)
		require.Equal(t, session.RoleAdmin, user.Role)
	})

	t.Run("rejects structurally invalid tokens", func(t *testing.T) {
		for _, raw := range []string{"", "garbage", "a.b", "a.!!!.c"} {
			_, err := session.DecodeExternalToken(raw)
			require.Error(t, err, "token %q", raw)
			require.True(t, apperrors.Is(err, apperrors.ErrMalformedToken))
		}
	})
}
