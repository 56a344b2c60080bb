package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/wealthguardian-backend/api/middleware"
	"github.com/angelmondragon/wealthguardian-backend/pkg/auth"
	"github.com/angelmondragon/wealthguardian-backend/pkg/auth/session"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
)

var sessionJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}

type fakeRotator struct {
	revoked   string
	rotateOld string
	rotateArg string
	nextID    string
	nextToken string
	rotateErr error
	revokeErr error
}

func (f *fakeRotator) Rotate(_ context.Context, oldAccessID, provided string) (string, string, error) {
	f.rotateOld, f.rotateArg = oldAccessID, provided
	return f.nextID, f.nextToken, f.rotateErr
}

func (f *fakeRotator) Revoke(_ context.Context, accessID string) error {
	f.revoked = accessID
	return f.revokeErr
}

// signedSession mints an access token issued at issuedAt and returns it with its jti.
func signedSession(t *testing.T, userID uuid.UUID, issuedAt time.Time) (string, string) {
	t.Helper()
	jti := session.NewAccessID()
	token, err := auth.MintAccessToken(sessionJWT, issuedAt, auth.AccessTokenPayload{
		UserID: userID,
		Email:  "saver@example.com",
		JTI:    jti,
	})
	require.NoError(t, err)
	return token, jti
}

func sessionRequest(path, token, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthLogoutRevokesPresentedSession(t *testing.T) {
	rotator := &fakeRotator{}
	token, jti := signedSession(t, uuid.New(), time.Now())

	rec := httptest.NewRecorder()
	AuthLogout(rotator, sessionJWT, nil).ServeHTTP(rec, sessionRequest("/logout", token, ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jti, rotator.revoked)
}

func TestAuthLogoutAcceptsLapsedToken(t *testing.T) {
	rotator := &fakeRotator{}
	token, jti := signedSession(t, uuid.New(), time.Now().Add(-time.Hour))

	rec := httptest.NewRecorder()
	AuthLogout(rotator, sessionJWT, nil).ServeHTTP(rec, sessionRequest("/logout", token, ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jti, rotator.revoked)
}

func TestAuthLogoutFailures(t *testing.T) {
	token, _ := signedSession(t, uuid.New(), time.Now())

	rec := httptest.NewRecorder()
	rotator := &fakeRotator{}
	AuthLogout(rotator, sessionJWT, nil).ServeHTTP(rec, sessionRequest("/logout", "", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rotator.revoked)

	rec = httptest.NewRecorder()
	AuthLogout(&fakeRotator{revokeErr: errors.New("redis down")}, sessionJWT, nil).
		ServeHTTP(rec, sessionRequest("/logout", token, ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	AuthLogout(nil, sessionJWT, nil).ServeHTTP(rec, sessionRequest("/logout", token, ""))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthRefreshIssuesNewPair(t *testing.T) {
	rotator := &fakeRotator{nextID: "new-jti", nextToken: "new-refresh"}
	userID := uuid.New()
	token, jti := signedSession(t, userID, time.Now())

	rec := httptest.NewRecorder()
	AuthRefresh(rotator, sessionJWT, nil).ServeHTTP(rec, sessionRequest("/refresh", token, `{"refreshToken":"old-refresh"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, jti, rotator.rotateOld)
	assert.Equal(t, "old-refresh", rotator.rotateArg)

	var envelope struct {
		Data refreshResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, "new-refresh", envelope.Data.RefreshToken)
	assert.Equal(t, envelope.Data.AccessToken, rec.Header().Get(middleware.TokenHeader))

	claims, err := auth.ParseAccessToken(sessionJWT, envelope.Data.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new-jti", claims.ID)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "saver@example.com", claims.Email)
}

func TestAuthRefreshRejections(t *testing.T) {
	token, _ := signedSession(t, uuid.New(), time.Now())

	cases := map[string]struct {
		rotator *fakeRotator
		token   string
		body    string
		want    int
	}{
		"used refresh token": {&fakeRotator{rotateErr: session.ErrInvalidRefreshToken}, token, `{"refreshToken":"old"}`, http.StatusUnauthorized},
		"store down":         {&fakeRotator{rotateErr: errors.New("redis down")}, token, `{"refreshToken":"old"}`, http.StatusServiceUnavailable},
		"missing body":       {&fakeRotator{}, token, `{}`, http.StatusBadRequest},
		"missing token":      {&fakeRotator{}, "", `{"refreshToken":"old"}`, http.StatusUnauthorized},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			AuthRefresh(tc.rotator, sessionJWT, nil).ServeHTTP(rec, sessionRequest("/refresh", tc.token, tc.body))
			assert.Equal(t, tc.want, rec.Code)
			assert.Empty(t, rec.Header().Get(middleware.TokenHeader))
		})
	}
}
