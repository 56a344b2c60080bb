package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/angelmondragon/wealthguardian-backend/api/responses"
	"github.com/angelmondragon/wealthguardian-backend/internal/payments"
	razorpaywebhook "github.com/angelmondragon/wealthguardian-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
)

const (
	SignatureHeader = "X-Razorpay-Signature"
	EventIDHeader   = "X-Razorpay-Event-Id"

	maxWebhookBody = 1 << 20
)

type RazorpayWebhookService interface {
	HandleEvent(ctx context.Context, event *razorpaywebhook.Event) (payments.Outcome, error)
}

type RazorpayWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type WebhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) bool
}

// RazorpayWebhook settles captured payments pushed by the gateway. Once the
// signature checks out the delivery is always acknowledged; failed settlements
// are left to the reconcile job.
func RazorpayWebhook(svc RazorpayWebhookService, verifier WebhookVerifier, guard RazorpayWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "razorpay client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		signature := strings.TrimSpace(r.Header.Get(SignatureHeader))
		if signature == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "razorpay signature missing"))
			return
		}
		if !verifier.VerifyWebhookSignature(payload, signature) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook signature"))
			return
		}

		var event razorpaywebhook.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload"))
			return
		}

		eventID := deliveryID(r, &event)
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"event_id":   eventID,
				"event_type": event.Event,
			})
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, map[string]string{"status": string(payments.OutcomeDuplicate)})
			return
		}

		outcome, err := svc.HandleEvent(ctx, &event)
		if err != nil || outcome == payments.OutcomeFailed {
			if delErr := guard.Delete(ctx, eventID); delErr != nil && logg != nil {
				logg.Error(ctx, "razorpay webhook guard release failed", delErr)
			}
		}
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "razorpay webhook rejected", err)
			}
			responses.WriteSuccess(w, map[string]string{"status": "rejected"})
			return
		}

		if logg != nil {
			logg.Info(logg.WithField(ctx, "outcome", string(outcome)), "razorpay webhook processed")
		}
		responses.WriteSuccess(w, map[string]string{"status": string(outcome)})
	}
}

// deliveryID prefers the gateway's event id header and falls back to the
// event type plus payment id, which is stable across redeliveries.
func deliveryID(r *http.Request, event *razorpaywebhook.Event) string {
	if id := strings.TrimSpace(r.Header.Get(EventIDHeader)); id != "" {
		return id
	}
	orderID, paymentID := event.PaymentRef()
	ref := paymentID
	if ref == "" {
		ref = orderID
	}
	return event.Event + ":" + ref
}
