package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func signFor(t *testing.T, secret string, orderID string, paymentID string) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature_Valid(t *testing.T) {
	g := NewRazorpayGateway("rzp_test_key", "test_secret")

	sig := signFor(t, "test_secret", "order_abc", "pay_xyz")
	assert.True(t, g.VerifySignature("order_abc", "pay_xyz", sig))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	g := NewRazorpayGateway("rzp_test_key", "test_secret")

	sig := signFor(t, "other_secret", "order_abc", "pay_xyz")
	assert.False(t, g.VerifySignature("order_abc", "pay_xyz", sig))
}

func TestVerifySignature_TamperedPaymentID(t *testing.T) {
	g := NewRazorpayGateway("rzp_test_key", "test_secret")

	sig := signFor(t, "test_secret", "order_abc", "pay_xyz")
	assert.False(t, g.VerifySignature("order_abc", "pay_other", sig))
}

func TestVerifySignature_EmptySignature(t *testing.T) {
	g := NewRazorpayGateway("rzp_test_key", "test_secret")

	assert.False(t, g.VerifySignature("order_abc", "pay_xyz", ""))
}
