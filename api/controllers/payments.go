package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wealthguardian-backend/api/responses"
	"github.com/angelmondragon/wealthguardian-backend/api/validators"
	"github.com/angelmondragon/wealthguardian-backend/internal/payments"
	"github.com/angelmondragon/wealthguardian-backend/internal/wallets"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/money"
)

type depositRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"omitempty,len=3"`
}

type depositResponse struct {
	OrderID     string          `json:"orderId"`
	OrderIDAlt  string          `json:"order_id"`
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	AmountMinor int64           `json:"amountMinor"`
	Currency    string          `json:"currency"`
	Receipt     string          `json:"receipt"`
	Key         string          `json:"key"`
}

// verifyPaymentRequest accepts both the camelCase and snake_case callback shapes.
type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`

	SnakeOrderID   string `json:"razorpay_order_id"`
	SnakePaymentID string `json:"razorpay_payment_id"`
	SnakeSignature string `json:"razorpay_signature"`
}

func (v verifyPaymentRequest) normalize() (payments.VerifyInput, error) {
	input := payments.VerifyInput{
		OrderID:   firstNonEmpty(v.RazorpayOrderID, v.SnakeOrderID),
		PaymentID: firstNonEmpty(v.RazorpayPaymentID, v.SnakePaymentID),
		Signature: firstNonEmpty(v.RazorpaySignature, v.SnakeSignature),
	}

	missing := map[string]string{}
	if input.OrderID == "" {
		missing["razorpayOrderId"] = "is required"
	}
	if input.PaymentID == "" {
		missing["razorpayPaymentId"] = "is required"
	}
	if input.Signature == "" {
		missing["razorpaySignature"] = "is required"
	}
	if len(missing) > 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(missing)
	}
	return input, nil
}

type settlementResponse struct {
	Transaction      *wallets.TransactionView `json:"transaction"`
	NewBalance       decimal.Decimal          `json:"newBalance"`
	AlreadyProcessed bool                     `json:"alreadyProcessed"`
}

// WalletDeposit creates a gateway order the client completes in checkout.
func WalletDeposit(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body depositRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CreateDepositOrder(r.Context(), payments.DepositInput{
			UserID:   userID,
			Amount:   body.Amount,
			Currency: strings.ToUpper(strings.TrimSpace(body.Currency)),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, depositResponse{
			OrderID:     order.OrderID,
			OrderIDAlt:  order.OrderID,
			ID:          order.OrderID,
			Amount:      order.Amount,
			AmountMinor: order.AmountMinor,
			Currency:    order.Currency,
			Receipt:     order.Receipt,
			Key:         order.KeyID,
		})
	}
}

// WalletVerifyPayment settles a checkout callback after checking its signature.
func WalletVerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.normalize()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.UserID = userID

		result, err := svc.VerifyPayment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := settlementResponse{
			NewBalance:       money.FromMinor(result.NewBalanceMinor),
			AlreadyProcessed: result.AlreadyProcessed,
		}
		if result.Transaction != nil {
			view := wallets.NewTransactionView(result.Transaction)
			resp.Transaction = &view
		}
		responses.WriteSuccess(w, resp)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
