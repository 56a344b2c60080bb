package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/wealthguardian-backend/pkg/enums"
)

// PaymentOrder mirrors a gateway order; ID is the gateway-assigned order id.
type PaymentOrder struct {
	ID                    string                   `gorm:"column:id;type:text;primaryKey"`
	WalletID              uuid.UUID                `gorm:"column:wallet_id;type:uuid;not null;index"`
	AmountMinor           int64                    `gorm:"column:amount_minor;type:bigint;not null"`
	Currency              string                   `gorm:"column:currency;type:text;not null"`
	Status                enums.PaymentOrderStatus `gorm:"column:status;type:text;not null;index:ix_payment_orders_status_created,priority:1"`
	Receipt               string                   `gorm:"column:receipt;type:text;not null"`
	RazorpayPaymentID     *string                  `gorm:"column:razorpay_payment_id;type:text"`
	CapturedTransactionID *uuid.UUID               `gorm:"column:captured_transaction_id;type:uuid"`
	CreatedAt             time.Time                `gorm:"column:created_at;autoCreateTime;index:ix_payment_orders_status_created,priority:2"`
	UpdatedAt             time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
