package redis

import "strings"

const defaultNamespace = "wg"

// Keys builds namespaced redis keys. The zero value uses the "wg" namespace.
type Keys struct {
	Namespace string
}

// IdempotencyKey scopes a replay record by caller scope and client key.
func (k Keys) IdempotencyKey(scope, id string) string {
	return k.join("idempotency", scope, id)
}

// RateLimitKey names a fixed-window counter.
func (k Keys) RateLimitKey(scope string) string {
	return k.join("rate_limit", scope)
}

// LockKey names a single-owner lock such as a cron job guard.
func (k Keys) LockKey(name string) string {
	return k.join("lock", name)
}

// AccessSessionKey names the refresh token bound to an access token id.
func (k Keys) AccessSessionKey(accessID string) string {
	return k.join("session", "access", accessID)
}

func (k Keys) join(parts ...string) string {
	ns := strings.TrimSpace(k.Namespace)
	if ns == "" {
		ns = defaultNamespace
	}
	var b strings.Builder
	b.WriteString(ns)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}
