package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/wealthguardian-backend/api/responses"
	"github.com/angelmondragon/wealthguardian-backend/api/validators"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

const (
	// IdempotencyHeader carries the client supplied replay key. Requests
	// without it run normally.
	IdempotencyHeader = "Idempotency-Key"
	// ReplayedHeader marks a response served from a stored record.
	ReplayedHeader = "Idempotent-Replayed"
)

const (
	depositReplayTTL     = 24 * time.Hour
	settlementReplayTTL  = 7 * 24 * time.Hour
	inFlightTTL          = 2 * time.Minute
	maxIdempotencyKeyLen = 128
)

// replayWindows lists the money-moving routes that honor Idempotency-Key and
// how long each keeps its answer.
var replayWindows = map[string]time.Duration{
	"POST /api/v1/wallet/deposit":        depositReplayTTL,
	"POST /api/v1/wallet/verify-payment": settlementReplayTTL,
	"POST /api/v1/wallet/transfer":       settlementReplayTTL,
}

type replayStore interface {
	Get(context.Context, string) (string, error)
	Set(context.Context, string, any, time.Duration) error
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	Del(context.Context, ...string) error
	IdempotencyKey(scope, id string) string
}

type replayState string

const (
	replayInFlight replayState = "in_flight"
	replayDone     replayState = "done"
)

// replayRecord is stored as JSON. The key is claimed with an in_flight record
// before the handler runs and overwritten with the finished response.
type replayRecord struct {
	State       replayState `json:"state"`
	RequestHash string      `json:"requestHash"`
	Status      int         `json:"status,omitempty"`
	ContentType string      `json:"contentType,omitempty"`
	Body        []byte      `json:"body,omitempty"`
}

// Idempotency replays the first answer for a repeated (user, route, key) and
// rejects reuse of a key with a different body. Concurrent duplicates get 409
// while the first request is still running.
func Idempotency(store replayStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ttl, ok := replayWindow(r.Method, routePattern(r))
			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if !ok || store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long"))
				return
			}

			body, err := validators.BufferBody(w, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			hash := fingerprint(body)
			key := store.IdempotencyKey(replayScope(r), clientKey)

			claim, _ := json.Marshal(replayRecord{State: replayInFlight, RequestHash: hash})
			won, err := store.SetNX(ctx, key, string(claim), inFlightTTL)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !won {
				serveExisting(ctx, logg, w, store, key, hash)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			finish(ctx, logg, store, key, ttl, hash, capture)
		})
	}
}

func serveExisting(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, store replayStore, key, hash string) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency record"))
		return
	}

	var rec replayRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	switch {
	case rec.RequestHash != hash:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
	case rec.State != replayDone:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this Idempotency-Key is still in progress"))
	default:
		if rec.ContentType != "" {
			w.Header().Set("Content-Type", rec.ContentType)
		}
		w.Header().Set(ReplayedHeader, "true")
		w.WriteHeader(rec.Status)
		_, _ = w.Write(rec.Body)
	}
}

// finish stores the captured answer, or drops the claim when the outcome is
// transient and the client should be free to retry with the same key.
func finish(ctx context.Context, logg *logger.Logger, store replayStore, key string, ttl time.Duration, hash string, capture *responseCapture) {
	status := capture.statusCode()
	if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
		if err := store.Del(ctx, key); err != nil && logg != nil {
			logg.Error(ctx, "idempotency.release_failed", err)
		}
		return
	}

	payload, _ := json.Marshal(replayRecord{
		State:       replayDone,
		RequestHash: hash,
		Status:      status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
	})
	if err := store.Set(ctx, key, string(payload), ttl); err != nil && logg != nil {
		logg.Error(ctx, "idempotency.persist_failed", err)
	}
}

func replayScope(r *http.Request) string {
	return UserIDFromContext(r.Context()) + "|" + r.Method + "|" + r.URL.Path
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// routePattern prefers chi's matched pattern. Middleware mounted ahead of a
// sub-router only sees a wildcard, so the raw path is used instead.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" && !strings.HasSuffix(pattern, "*") {
			return pattern
		}
	}
	return strings.TrimSuffix(r.URL.Path, "/")
}

func replayWindow(method, pattern string) (time.Duration, bool) {
	ttl, ok := replayWindows[method+" "+pattern]
	return ttl, ok
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
