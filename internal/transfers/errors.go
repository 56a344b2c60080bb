package transfers

import pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"

var (
	ErrInvalidAmount          = pkgerrors.New(pkgerrors.CodeValidation, "Invalid amount. Please enter a positive value.")
	ErrInsufficientBalance    = pkgerrors.New(pkgerrors.CodeStateConflict, "Insufficient wallet balance")
	ErrReceiverNotFound       = pkgerrors.New(pkgerrors.CodeNotFound, "Receiver not found")
	ErrSelfTransferNotAllowed = pkgerrors.New(pkgerrors.CodeValidation, "Cannot transfer money to yourself")
)
