package razorpay

// Order is the gateway order resource.
type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	CreatedAt  int64  `json:"created_at"`
}

// Payment is a gateway payment attempt against an order.
type Payment struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	OrderID   string `json:"order_id"`
	Method    string `json:"method"`
	Captured  bool   `json:"captured"`
	CreatedAt int64  `json:"created_at"`
}

// PaymentStatusCaptured marks a payment whose funds were collected.
const PaymentStatusCaptured = "captured"

// IsCaptured reports whether the payment has been captured.
func (p Payment) IsCaptured() bool {
	return p.Status == PaymentStatusCaptured
}

type paymentCollection struct {
	Entity string    `json:"entity"`
	Count  int       `json:"count"`
	Items  []Payment `json:"items"`
}
