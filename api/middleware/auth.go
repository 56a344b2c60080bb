package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/wealthguardian-backend/api/responses"
	pkgAuth "github.com/angelmondragon/wealthguardian-backend/pkg/auth"
	"github.com/angelmondragon/wealthguardian-backend/pkg/auth/session"
	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

const bearerPrefix = "bearer "

var (
	errNoCredentials  = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	errNoSessionID    = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	errSessionRevoked = pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
)

// Auth admits requests carrying a valid access token whose session is still
// live, and attaches the caller's Identity.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, err := authenticate(r, cfg, verifier)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithIdentity(ctx, id)
			if logg != nil {
				ctx = logg.WithUserID(ctx, id.UserID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, cfg config.JWTConfig, verifier session.AccessSessionChecker) (Identity, error) {
	token, ok := BearerToken(r)
	if !ok {
		return Identity{}, errNoCredentials
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return Identity{}, errNoSessionID
	}
	if verifier != nil {
		live, err := verifier.HasSession(r.Context(), claims.ID)
		if err != nil {
			return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !live {
			return Identity{}, errSessionRevoked
		}
	}
	return Identity{UserID: claims.UserID, Email: claims.Email, SessionID: claims.ID}, nil
}

// BearerToken reads the Authorization header. The "Bearer " scheme prefix is
// optional and case-insensitive.
func BearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) >= len(bearerPrefix) && strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		raw = strings.TrimSpace(raw[len(bearerPrefix):])
	}
	return raw, raw != ""
}
