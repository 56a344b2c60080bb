package payments

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	receiptPrefix   = "wg"
	receiptUserPart = 8
	// MaxReceiptLength is the gateway's receipt limit.
	MaxReceiptLength = 40
)

// NewReceipt builds a per-request receipt of the form wg_<user prefix>_<unix millis>_<4 hex>.
func NewReceipt(userID uuid.UUID, now time.Time) (string, error) {
	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("receipt suffix: %w", err)
	}
	receipt := fmt.Sprintf("%s_%s_%d_%s", receiptPrefix, userID.String()[:receiptUserPart], now.UnixMilli(), hex.EncodeToString(suffix))
	if len(receipt) > MaxReceiptLength {
		receipt = receipt[:MaxReceiptLength]
	}
	return receipt, nil
}
