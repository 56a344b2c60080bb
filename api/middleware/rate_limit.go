package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/wealthguardian-backend/api/responses"
	"github.com/angelmondragon/wealthguardian-backend/api/validators"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

type rateCounter interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(scope string) string
}

// RateLimitPolicy is a fixed-window budget for one surface. Each dimension
// (client ip, login email, authenticated user) gets its own counter.
type RateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
	userLimit  int
}

// NewAuthRateLimitPolicy throttles anonymous auth calls by client ip and by the
// email in the request body.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) RateLimitPolicy {
	return RateLimitPolicy{name: policyName(name, "auth"), window: window, ipLimit: ipLimit, emailLimit: emailLimit}
}

// NewWalletRateLimitPolicy throttles money-moving calls per authenticated user.
func NewWalletRateLimitPolicy(name string, window time.Duration, userLimit int) RateLimitPolicy {
	return RateLimitPolicy{name: policyName(name, "wallet"), window: window, userLimit: userLimit}
}

func policyName(name, fallback string) string {
	if n := strings.ToLower(strings.TrimSpace(name)); n != "" {
		return n
	}
	return fallback
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0 || p.userLimit > 0)
}

type rateCheck struct {
	dimension string
	subject   string
	limit     int
}

func (p RateLimitPolicy) scope(c rateCheck) string {
	return c.dimension + ":" + p.name + ":" + c.subject
}

// RateLimit enforces the policy. Exhausted budgets answer 429 with Retry-After.
func RateLimit(policy RateLimitPolicy, store rateCounter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			checks, err := policy.checksFor(w, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			for _, check := range checks {
				count, err := store.IncrWithTTL(ctx, store.RateLimitKey(policy.scope(check)), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > int64(check.limit) {
					policy.reject(ctx, logg, w, check, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (p RateLimitPolicy) checksFor(w http.ResponseWriter, r *http.Request) ([]rateCheck, error) {
	var checks []rateCheck
	if p.ipLimit > 0 {
		if ip := clientIP(r); ip != "" {
			checks = append(checks, rateCheck{dimension: "ip", subject: ip, limit: p.ipLimit})
		}
	}
	if p.userLimit > 0 {
		if userID := UserIDFromContext(r.Context()); userID != "" {
			checks = append(checks, rateCheck{dimension: "user", subject: userID, limit: p.userLimit})
		}
	}
	if p.emailLimit > 0 {
		body, err := validators.BufferBody(w, r)
		if err != nil {
			return nil, err
		}
		if email := normalizeEmail(extractEmail(body)); email != "" {
			checks = append(checks, rateCheck{dimension: "email", subject: hashValue(email), limit: p.emailLimit})
		}
	}
	return checks, nil
}

func (p RateLimitPolicy) reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, check rateCheck, count int64) {
	if logg != nil {
		fields := map[string]any{
			"policy":         p.name,
			"dimension":      check.dimension,
			"attempts":       count,
			"limit":          check.limit,
			"window_seconds": int(p.window.Seconds()),
		}
		switch check.dimension {
		case "email":
			fields["email_hash"] = check.subject
		case "ip":
			fields["ip"] = check.subject
		case "user":
			fields["user_id"] = check.subject
		}
		logg.Warn(logg.WithFields(ctx, fields), "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(p.window.Round(time.Second).Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
