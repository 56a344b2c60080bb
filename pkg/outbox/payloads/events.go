package payloads

import (
	"time"

	"github.com/google/uuid"
)

// WalletProvisionedEvent is emitted when a wallet and its seed entry are created.
type WalletProvisionedEvent struct {
	WalletID      uuid.UUID  `json:"walletId"`
	UserID        uuid.UUID  `json:"userId"`
	BalanceMinor  int64      `json:"balanceMinor"`
	Currency      string     `json:"currency"`
	SeedEntryID   *uuid.UUID `json:"seedEntryId,omitempty"`
	ProvisionedAt time.Time  `json:"provisionedAt"`
}

// DepositSettledEvent is emitted once per captured gateway payment.
type DepositSettledEvent struct {
	WalletID          uuid.UUID `json:"walletId"`
	TransactionID     uuid.UUID `json:"transactionId"`
	RazorpayOrderID   string    `json:"razorpayOrderId"`
	RazorpayPaymentID string    `json:"razorpayPaymentId"`
	AmountMinor       int64     `json:"amountMinor"`
	Currency          string    `json:"currency"`
	BalanceMinor      int64     `json:"balanceMinor"`
	Source            string    `json:"source"`
	SettledAt         time.Time `json:"settledAt"`
}

// TransferCompletedEvent is emitted after both legs of a transfer commit.
type TransferCompletedEvent struct {
	SenderWalletID   uuid.UUID `json:"senderWalletId"`
	ReceiverWalletID uuid.UUID `json:"receiverWalletId"`
	SenderUserID     uuid.UUID `json:"senderUserId"`
	ReceiverUserID   uuid.UUID `json:"receiverUserId"`
	OutTransactionID uuid.UUID `json:"outTransactionId"`
	InTransactionID  uuid.UUID `json:"inTransactionId"`
	AmountMinor      int64     `json:"amountMinor"`
	Description      string    `json:"description"`
	CompletedAt      time.Time `json:"completedAt"`
}
