package enums

// PaymentOrderStatus tracks a gateway order. CREATED moves to CAPTURED once
// and never back.
type PaymentOrderStatus string

const (
	PaymentOrderCreated  PaymentOrderStatus = "CREATED"
	PaymentOrderCaptured PaymentOrderStatus = "CAPTURED"
)

var paymentOrderStatuses = newSet("payment order status", PaymentOrderCreated, PaymentOrderCaptured)

func (s PaymentOrderStatus) IsValid() bool { return paymentOrderStatuses.has(s) }

func ParsePaymentOrderStatus(value string) (PaymentOrderStatus, error) {
	return paymentOrderStatuses.parse(value)
}
