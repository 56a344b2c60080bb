package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/angelmondragon/wealthguardian-backend/api/middleware"
	"github.com/angelmondragon/wealthguardian-backend/api/responses"
	"github.com/angelmondragon/wealthguardian-backend/api/validators"
	pkgAuth "github.com/angelmondragon/wealthguardian-backend/pkg/auth"
	"github.com/angelmondragon/wealthguardian-backend/pkg/auth/session"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

type sessionTokenRotator interface {
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

var errStaleRefresh = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")

// presentedSession reads the caller's access token without enforcing expiry;
// logout and refresh both have to work on a token that just lapsed.
func presentedSession(r *http.Request, cfg config.JWTConfig) (*pkgAuth.AccessTokenClaims, error) {
	raw, ok := middleware.BearerToken(r)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(cfg, raw)
	switch {
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	case claims.ID == "":
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	return claims, nil
}

// AuthLogout revokes the refresh token bound to the presented access token.
func AuthLogout(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	if manager == nil {
		return unavailable("session manager", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims, err := presentedSession(r, cfg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := manager.Revoke(ctx, claims.ID); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

// AuthRefresh trades a single-use refresh token for a new token pair.
func AuthRefresh(manager sessionTokenRotator, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	if manager == nil {
		return unavailable("session manager", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var body refreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		claims, err := presentedSession(r, cfg)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		accessID, refreshToken, err := manager.Rotate(ctx, claims.ID, body.RefreshToken)
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			responses.WriteError(ctx, logg, w, errStaleRefresh)
			return
		}
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session"))
			return
		}

		accessToken, err := pkgAuth.MintAccessToken(cfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
			UserID: claims.UserID,
			Email:  claims.Email,
			JTI:    accessID,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token"))
			return
		}

		w.Header().Set(middleware.TokenHeader, accessToken)
		responses.WriteSuccess(w, refreshResponse{AccessToken: accessToken, RefreshToken: refreshToken})
	}
}
