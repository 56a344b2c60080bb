package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wealthguardian-backend/api/responses"
	"github.com/angelmondragon/wealthguardian-backend/api/validators"
	"github.com/angelmondragon/wealthguardian-backend/internal/transfers"
	"github.com/angelmondragon/wealthguardian-backend/internal/wallets"
	pkgerrors "github.com/angelmondragon/wealthguardian-backend/pkg/errors"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/money"
)

const maxTransferDescriptionLen = 255

type transferRequest struct {
	ReceiverEmail string          `json:"receiverEmail" validate:"required,email"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description" validate:"max=500"`
}

type transferResponse struct {
	Transaction wallets.TransactionView `json:"transaction"`
	WalletID    uuid.UUID               `json:"walletId"`
	NewBalance  decimal.Decimal         `json:"newBalance"`
	Receiver    transfers.Counterparty  `json:"receiver"`
}

// WalletTransfer moves funds from the caller to another user by email.
func WalletTransfer(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transfer service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body transferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Transfer(r.Context(), transfers.TransferInput{
			SenderUserID:  userID,
			ReceiverEmail: body.ReceiverEmail,
			Amount:        body.Amount,
			Description:   validators.SanitizeString(body.Description, maxTransferDescriptionLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, transferResponse{
			Transaction: wallets.NewTransactionView(result.Transaction),
			WalletID:    result.SenderWalletID,
			NewBalance:  money.FromMinor(result.NewBalanceMinor),
			Receiver:    result.Receiver,
		})
	}
}
