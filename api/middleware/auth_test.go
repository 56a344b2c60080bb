package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wealthguardian-backend/pkg/auth"
	"github.com/angelmondragon/wealthguardian-backend/pkg/auth/session"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func TestAuthRejections(t *testing.T) {
	valid := mintTestToken(t, testJWT, uuid.New(), "saver@example.com")

	cases := map[string]struct {
		header   string
		verifier stubSessionVerifier
		want     int
	}{
		"missing token":   {"", stubSessionVerifier{ok: true}, http.StatusUnauthorized},
		"garbage token":   {"Bearer invalid", stubSessionVerifier{ok: true}, http.StatusUnauthorized},
		"revoked session": {"Bearer " + valid, stubSessionVerifier{ok: false}, http.StatusUnauthorized},
		"session store":   {"Bearer " + valid, stubSessionVerifier{err: errors.New("redis down")}, http.StatusServiceUnavailable},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var reached bool
			handler := Auth(testJWT, tc.verifier, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				reached = true
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			assert.False(t, reached)
		})
	}
}

func TestAuthAttachesIdentity(t *testing.T) {
	userID := uuid.New()
	token := mintTestToken(t, testJWT, userID, "saver@example.com")

	var got Identity
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFromContext(r.Context())
	}))

	for _, header := range []string{"Bearer " + token, "bearer " + token, token} {
		got = Identity{}
		req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, "saver@example.com", got.Email)
		assert.NotEmpty(t, got.SessionID)
	}
}

func TestIdentityHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, UserIDFromContext(ctx))

	ctx = WithUserID(ctx, "not-a-uuid")
	_, ok := IdentityFromContext(ctx)
	assert.False(t, ok)

	id := uuid.New()
	ctx = WithUserID(ctx, id.String())
	assert.Equal(t, id.String(), UserIDFromContext(ctx))
	assert.Empty(t, EmailFromContext(ctx))
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, email string) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID: userID,
		Email:  email,
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}
