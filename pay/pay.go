// Package pay computes the payment gateway's request and notification digests.
//
// The gateway signs with nested MD5: the merchant secret is hashed first, and the
// uppercase hex of that is appended to the payload before hashing again.
package pay

import (
	"crypto/md5"
	"crypto/subtle"
	"fmt"
	"strings"

	"kiosk/apperr"
)

// StatusSuccess is the notification status code of a completed payment.
const StatusSuccess = "2"

// Checkout is what the client signs before redirecting to the gateway.
type Checkout struct {
	MerchantID string
	OrderID    string
	Amount     float64
	Currency   string
}

// Notification is the gateway's server-to-server payment report.
type Notification struct {
	MerchantID string
	OrderID    string
	Amount     string // as sent by the gateway, e.g. "1000.00"
	Currency   string
	StatusCode string
	MD5Sig     string
}

func md5Upper(s string) string {
	return strings.ToUpper(fmt.Sprintf("%x", md5.Sum([]byte(s))))
}

// FormatAmount renders amount the way the gateway expects it, two decimals, no grouping.
func FormatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

func (c Checkout) validate() error {
	fields := map[string]string{}
	if c.MerchantID == "" {
		fields["merchantId"] = "Merchant id is required."
	}
	if c.OrderID == "" {
		fields["orderId"] = "Order id is required."
	}
	if c.Amount <= 0 {
		fields["amount"] = "Amount must be positive."
	}
	if c.Currency == "" {
		fields["currency"] = "Currency is required."
	}
	return apperr.Validation(fields)
}

// CheckoutHash signs c with the merchant secret.
func CheckoutHash(c Checkout, secret string) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	if secret == "" {
		return "", apperr.Validation(map[string]string{"secret": "Merchant secret is not configured."})
	}
	return md5Upper(c.MerchantID + c.OrderID + FormatAmount(c.Amount) + c.Currency + md5Upper(secret)), nil
}

// NotificationHash is the digest a genuine notification n must carry.
func NotificationHash(n Notification, secret string) string {
	return md5Upper(n.MerchantID + n.OrderID + n.Amount + n.Currency + n.StatusCode + md5Upper(secret))
}

// VerifyNotification reports whether n was signed with secret.
func VerifyNotification(n Notification, secret string) bool {
	if secret == "" || n.MD5Sig == "" {
		return false
	}
	want := NotificationHash(n, secret)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToUpper(n.MD5Sig))) == 1
}

// Paid reports whether n is an authentic success notification.
func Paid(n Notification, secret string) bool {
	return n.StatusCode == StatusSuccess && VerifyNotification(n, secret)
}
