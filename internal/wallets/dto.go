package wallets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/wealthguardian-backend/pkg/db/models"
	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
	"github.com/angelmondragon/wealthguardian-backend/pkg/money"
)

// WalletView is the API representation of a wallet.
type WalletView struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"userId"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TransactionView is the API representation of a ledger entry.
type TransactionView struct {
	ID                uuid.UUID                     `json:"id"`
	WalletID          uuid.UUID                     `json:"walletId"`
	Amount            decimal.Decimal               `json:"amount"`
	Type              enums.WalletTransactionType   `json:"type"`
	Status            enums.WalletTransactionStatus `json:"status"`
	Description       string                        `json:"description"`
	SenderID          *uuid.UUID                    `json:"senderId,omitempty"`
	ReceiverID        *uuid.UUID                    `json:"receiverId,omitempty"`
	RazorpayOrderID   *string                       `json:"razorpayOrderId,omitempty"`
	RazorpayPaymentID *string                       `json:"razorpayPaymentId,omitempty"`
	CreatedAt         time.Time                     `json:"createdAt"`
}

// WalletDetail bundles a wallet with its latest entries.
type WalletDetail struct {
	WalletView
	Transactions []TransactionView `json:"walletTransactions"`
}

// TransactionPage is one page of wallet history.
type TransactionPage struct {
	Items []TransactionView
	Total int64
	Page  int
	Limit int
	Pages int
}

// ActivityView is a compact entry used by wallet stats.
type ActivityView struct {
	ID          uuid.UUID                   `json:"id"`
	Type        enums.WalletTransactionType `json:"type"`
	Amount      decimal.Decimal             `json:"amount"`
	Description string                      `json:"description"`
	Date        time.Time                   `json:"date"`
}

// Stats summarizes wallet activity.
type Stats struct {
	TotalSent         decimal.Decimal `json:"totalSent"`
	TotalReceived     decimal.Decimal `json:"totalReceived"`
	LastMonthActivity decimal.Decimal `json:"lastMonthActivity"`
	TransactionCount  int64           `json:"transactionCount"`
	RecentActivity    []ActivityView  `json:"recentActivity"`
}

// NewWalletView converts a wallet model to its API shape.
func NewWalletView(w *models.Wallet) WalletView {
	return WalletView{
		ID:        w.ID,
		UserID:    w.UserID,
		Balance:   money.FromMinor(w.BalanceMinor),
		Currency:  w.Currency,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

// NewTransactionView converts a ledger entry to its API shape.
func NewTransactionView(t *models.WalletTransaction) TransactionView {
	return TransactionView{
		ID:                t.ID,
		WalletID:          t.WalletID,
		Amount:            money.FromMinor(t.AmountMinor),
		Type:              t.Type,
		Status:            t.Status,
		Description:       t.Description,
		SenderID:          t.SenderID,
		ReceiverID:        t.ReceiverID,
		RazorpayOrderID:   t.RazorpayOrderID,
		RazorpayPaymentID: t.RazorpayPaymentID,
		CreatedAt:         t.CreatedAt,
	}
}

func transactionViews(rows []models.WalletTransaction) []TransactionView {
	views := make([]TransactionView, 0, len(rows))
	for i := range rows {
		views = append(views, NewTransactionView(&rows[i]))
	}
	return views
}
