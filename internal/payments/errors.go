package payments

import (
	"errors"

	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
)

var (
	ErrInvalidAmount        = pkgerrors.New(pkgerrors.CodeValidation, "Invalid amount. Please enter a positive value.")
	ErrInvalidCurrency      = pkgerrors.New(pkgerrors.CodeValidation, "Unsupported currency")
	ErrInvalidSignature     = pkgerrors.New(pkgerrors.CodeValidation, "Invalid payment signature")
	ErrPaymentOrderNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "Payment record not found")
	ErrNotAuthorized        = pkgerrors.New(pkgerrors.CodeForbidden, "Not authorized to verify this payment")
	ErrPaymentGateway       = pkgerrors.New(pkgerrors.CodeDependency, "Payment initialization failed. Please try again.")
)

// errCaptureLost marks a settlement attempt that lost the capture race.
var errCaptureLost = errors.New("payments: order captured by concurrent settlement")
