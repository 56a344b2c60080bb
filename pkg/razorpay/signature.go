package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/razorpay/razorpay-go/utils"
)

// VerifyPaymentSignature checks the checkout signature over "orderID|paymentID"
// using the API key secret.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	signature = normalizeSignature(signature)
	if c == nil || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, signature, c.keySecret)
}

// VerifyWebhookSignature checks the raw webhook body against the webhook secret.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	signature = normalizeSignature(signature)
	if c == nil || signature == "" {
		return false
	}
	return utils.VerifyWebhookSignature(string(body), signature, c.webhookSecret)
}

// Sign returns the hex HMAC-SHA256 of payload, the form Razorpay sends.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// normalizeSignature lowercases hex so upper-case senders still match.
func normalizeSignature(signature string) string {
	return strings.ToLower(strings.TrimSpace(signature))
}
