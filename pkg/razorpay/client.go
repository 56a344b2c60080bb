package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	rzp "github.com/razorpay/razorpay-go"

	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

const (
	defaultBaseURL = "https://api.razorpay.com"
	defaultTimeout = 10 * time.Second
)

var (
	errKeyIDRequired         = errors.New("razorpay key id is required")
	errKeySecretRequired     = errors.New("razorpay key secret is required")
	errWebhookSecretRequired = errors.New("razorpay webhook secret is required")
	errLoggerRequired        = errors.New("razorpay logger is required")
)

// RequestObserver records gateway call latency by operation and outcome.
type RequestObserver interface {
	ObserveGatewayRequest(operation, outcome string, elapsed time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient replaces the http client the SDK sends through.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			rzp.Request.HTTPClient = hc
		}
	}
}

// WithObserver attaches a latency observer.
func WithObserver(obs RequestObserver) Option {
	return func(c *Client) {
		c.observer = obs
	}
}

// Client wraps the Razorpay SDK with logging, latency metrics and error mapping.
// The SDK does not retry.
type Client struct {
	sdk           *rzp.Client
	keyID         string
	keySecret     string
	webhookSecret string
	logger        *logger.Logger
	observer      RequestObserver
}

// NewClient validates credentials and builds the gateway client.
func NewClient(cfg config.RazorpayConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}
	webhookSecret := strings.TrimSpace(cfg.WebhookSecret)
	if webhookSecret == "" {
		return nil, errWebhookSecretRequired
	}

	sdk := rzp.NewClient(keyID, keySecret)
	rzp.Request.BaseURL = baseURL(cfg.BaseURL)
	sdk.SetTimeout(timeoutSeconds(cfg.Timeout))

	c := &Client{
		sdk:           sdk,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		logger:        logg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// baseURL accepts the host with or without the /v1 suffix; the SDK adds it.
func baseURL(raw string) string {
	url := strings.TrimRight(strings.TrimSpace(raw), "/")
	url = strings.TrimSuffix(url, "/v1")
	if url == "" {
		return defaultBaseURL
	}
	return url
}

// timeoutSeconds rounds up to whole seconds, the SDK's granularity.
func timeoutSeconds(d time.Duration) int16 {
	if d <= 0 {
		d = defaultTimeout
	}
	secs := math.Ceil(d.Seconds())
	if secs > math.MaxInt16 {
		return math.MaxInt16
	}
	return int16(secs)
}

// KeyID returns the public key id handed to checkout clients.
func (c *Client) KeyID() string {
	if c == nil {
		return ""
	}
	return c.keyID
}

// CreateOrder opens a gateway order for amountMinor with automatic capture.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error) {
	if amountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order amount must be positive")
	}
	data := map[string]interface{}{
		"amount":          amountMinor,
		"currency":        currency,
		"receipt":         receipt,
		"payment_capture": 1,
	}
	c.log(ctx, "request", "create_order", map[string]any{
		"amount_minor": amountMinor,
		"currency":     currency,
		"receipt":      receipt,
	})

	var order Order
	err := c.call(ctx, "create_order", &order, func() (map[string]interface{}, error) {
		return c.sdk.Order.Create(data, nil)
	})
	if err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "razorpay create_order returned no order id")
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
	})
	return &order, nil
}

// FetchOrderPayments lists payment attempts recorded against an order.
func (c *Client) FetchOrderPayments(ctx context.Context, orderID string) ([]Payment, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	c.log(ctx, "request", "fetch_order_payments", map[string]any{"order_id": orderID})

	var out paymentCollection
	err := c.call(ctx, "fetch_order_payments", &out, func() (map[string]interface{}, error) {
		return c.sdk.Order.Payments(orderID, nil, nil)
	})
	if err != nil {
		return nil, err
	}

	c.log(ctx, "response", "fetch_order_payments", map[string]any{
		"order_id": orderID,
		"count":    len(out.Items),
	})
	return out.Items, nil
}

type sdkResult struct {
	body map[string]interface{}
	err  error
}

// call runs one SDK request and decodes its map response into out. The SDK
// takes no context, so a cancelled ctx abandons the request; the http client
// timeout still bounds it.
func (c *Client) call(ctx context.Context, op string, out any, fn func() (map[string]interface{}, error)) error {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		c.observe(op, "canceled", started)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("razorpay %s canceled", op))
	}

	done := make(chan sdkResult, 1)
	go func() {
		body, err := fn()
		done <- sdkResult{body: body, err: err}
	}()

	var res sdkResult
	select {
	case <-ctx.Done():
		c.observe(op, "canceled", started)
		c.log(ctx, "error", op, map[string]any{"error": ctx.Err().Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), fmt.Sprintf("razorpay %s canceled", op))
	case res = <-done:
	}

	if res.err != nil {
		c.observe(op, "api_error", started)
		c.log(ctx, "error", op, map[string]any{"error": res.err.Error()})
		return mapSDKError(res.err, op)
	}
	if err := decode(res.body, out); err != nil {
		c.observe(op, "decode_error", started)
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("decode razorpay %s response", op))
	}
	c.observe(op, "ok", started)
	return nil
}

// decode moves the SDK's generic map into a typed resource.
func decode(body map[string]interface{}, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func mapSDKError(err error, op string) error {
	details := map[string]any{"gateway_description": err.Error()}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("razorpay %s failed", op)).WithDetails(details)
}

func (c *Client) observe(op, outcome string, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveGatewayRequest(op, outcome, time.Since(started))
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("razorpay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("razorpay %s", phase))
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"secret", "signature", "token", "card", "vpa", "email", "contact"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
