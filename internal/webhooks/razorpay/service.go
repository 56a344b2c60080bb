package razorpaywebhook

import (
	"context"

	"github.com/angelmondragon/wealthguardian-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
)

// OutcomeIgnored is reported for event types that carry no settlement.
const OutcomeIgnored payments.Outcome = "ignored"

type paymentCapturer interface {
	HandlePaymentCapturedEvent(ctx context.Context, orderID, paymentID string) payments.Outcome
}

type Service struct {
	payments paymentCapturer
}

func NewService(capturer paymentCapturer) (*Service, error) {
	if capturer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment service required")
	}
	return &Service{payments: capturer}, nil
}

// HandleEvent routes a verified webhook event to settlement.
func (s *Service) HandleEvent(ctx context.Context, event *Event) (payments.Outcome, error) {
	if event == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "webhook event required")
	}
	switch event.Event {
	case EventPaymentCaptured, EventOrderPaid:
		orderID, paymentID := event.PaymentRef()
		if orderID == "" || paymentID == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "payment entity missing order or payment id")
		}
		return s.payments.HandlePaymentCapturedEvent(ctx, orderID, paymentID), nil
	default:
		return OutcomeIgnored, nil
	}
}
