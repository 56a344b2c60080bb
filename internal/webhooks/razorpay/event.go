package razorpaywebhook

import "github.com/angelmondragon/wealthguardian-backend/pkg/razorpay"

// Event types acted on; every other event is acknowledged and ignored.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
)

// Event is the webhook envelope posted by the gateway.
type Event struct {
	Entity    string       `json:"entity"`
	AccountID string       `json:"account_id"`
	Event     string       `json:"event"`
	Contains  []string     `json:"contains"`
	Payload   EventPayload `json:"payload"`
	CreatedAt int64        `json:"created_at"`
}

// EventPayload holds the entities attached to an event.
type EventPayload struct {
	Payment *PaymentWrapper `json:"payment,omitempty"`
	Order   *OrderWrapper   `json:"order,omitempty"`
}

type PaymentWrapper struct {
	Entity razorpay.Payment `json:"entity"`
}

type OrderWrapper struct {
	Entity razorpay.Order `json:"entity"`
}

// PaymentRef returns the order and payment ids carried by the event.
func (e *Event) PaymentRef() (orderID, paymentID string) {
	if e == nil {
		return "", ""
	}
	if e.Payload.Payment != nil {
		orderID = e.Payload.Payment.Entity.OrderID
		paymentID = e.Payload.Payment.Entity.ID
	}
	if orderID == "" && e.Payload.Order != nil {
		orderID = e.Payload.Order.Entity.ID
	}
	return orderID, paymentID
}
