package wallets

import pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"

var (
	ErrWalletNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
	ErrInvalidUser    = pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
)
