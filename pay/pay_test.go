package pay

import (
	"testing"

	"kiosk/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "secret123"

func TestCheckoutHash(t *testing.T) {
	cases := []struct {
		in   Checkout
		want string
	}{
		{Checkout{MerchantID: "1211149", OrderID: "ItemNo12345", Amount: 1000, Currency: "LKR"}, "71638FD6DFF55F8A44B8D853D7D68872"},
		{Checkout{MerchantID: "1211149", OrderID: "ItemNo12345", Amount: 12.5, Currency: "USD"}, "71FE80BDE52841340B965328938B2CA1"},
	}
	for _, tc := range cases {
		got, err := CheckoutHash(tc.in, secret)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
	assert.Equal(t, "5D7845AC6EE7CFFFAFC5FE5F35CF666D", md5Upper(secret))
}

func TestCheckoutHashValidates(t *testing.T) {
	_, err := CheckoutHash(Checkout{MerchantID: "1211149"}, secret)
	var e *apperr.Error
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Fields, "orderId")
	assert.Contains(t, e.Fields, "amount")
	assert.Contains(t, e.Fields, "currency")

	_, err = CheckoutHash(Checkout{MerchantID: "1", OrderID: "2", Amount: 1, Currency: "LKR"}, "")
	assert.True(t, apperr.IsKind(err, apperr.ValidationFailure))
}

func TestVerifyNotification(t *testing.T) {
	n := Notification{
		MerchantID: "1211149",
		OrderID:    "ItemNo12345",
		Amount:     "1000.00",
		Currency:   "LKR",
		StatusCode: "2",
		MD5Sig:     "A9018D2364D2B20F130C37138E8EE04D",
	}
	assert.True(t, VerifyNotification(n, secret))
	assert.True(t, Paid(n, secret))

	lower := n
	lower.MD5Sig = "a9018d2364d2b20f130c37138e8ee04d"
	assert.True(t, VerifyNotification(lower, secret))

	tampered := n
	tampered.Amount = "1.00"
	assert.False(t, VerifyNotification(tampered, secret))
	assert.False(t, VerifyNotification(n, "other"))

	pending := n
	pending.StatusCode = "0"
	pending.MD5Sig = NotificationHash(pending, secret)
	assert.True(t, VerifyNotification(pending, secret))
	assert.False(t, Paid(pending, secret))
}
