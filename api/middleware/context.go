package middleware

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the authenticated caller attached by Auth.
type Identity struct {
	UserID    uuid.UUID
	Email     string
	SessionID string
}

type identityKey struct{}

// WithIdentity stores id on ctx for downstream handlers.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext reports false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != uuid.Nil
}

// UserIDFromContext returns the caller's user id, or "" when anonymous.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := IdentityFromContext(ctx); ok {
		return id.UserID.String()
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Email
}

// WithUserID attaches a bare identity. Malformed ids leave ctx anonymous.
func WithUserID(ctx context.Context, userID string) context.Context {
	parsed, err := uuid.Parse(userID)
	if err != nil {
		if ctx == nil {
			return context.Background()
		}
		return ctx
	}
	return WithIdentity(ctx, Identity{UserID: parsed})
}
