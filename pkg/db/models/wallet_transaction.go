package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
)

// WalletTransaction is an append-only ledger entry. AmountMinor is always positive;
// Type carries the sign.
type WalletTransaction struct {
	ID                uuid.UUID                     `gorm:"column:id;type:uuid;primaryKey"`
	WalletID          uuid.UUID                     `gorm:"column:wallet_id;type:uuid;not null;index:ix_wallet_transactions_wallet_created,priority:1"`
	AmountMinor       int64                         `gorm:"column:amount_minor;type:bigint;not null"`
	Type              enums.WalletTransactionType   `gorm:"column:type;type:text;not null"`
	Status            enums.WalletTransactionStatus `gorm:"column:status;type:text;not null"`
	Description       string                        `gorm:"column:description;type:text;not null"`
	SenderID          *uuid.UUID                    `gorm:"column:sender_id;type:uuid"`
	ReceiverID        *uuid.UUID                    `gorm:"column:receiver_id;type:uuid"`
	RazorpayOrderID   *string                       `gorm:"column:razorpay_order_id;type:text"`
	RazorpayPaymentID *string                       `gorm:"column:razorpay_payment_id;type:text;uniqueIndex:ux_wallet_transactions_razorpay_payment_id"`
	CreatedAt         time.Time                     `gorm:"column:created_at;autoCreateTime;index:ix_wallet_transactions_wallet_created,priority:2,sort:desc"`
}

func (t *WalletTransaction) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
