package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	razorpay "github.com/razorpay/razorpay-go"
)

type RazorpayGateway struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
}

// DI
func NewRazorpayGateway(keyID string, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{
		client:    razorpay.NewClient(keyID, keySecret),
		keyID:     keyID,
		keySecret: keySecret,
	}
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// プロバイダ側の注文を作成して order_id を返す。
func (g *RazorpayGateway) CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (string, error) {
	data := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", err
	}

	id, ok := body["id"].(string)
	if !ok || id == "" {
		return "", errors.New("provider response missing order id")
	}
	return id, nil
}

// HMAC-SHA256("orderID|paymentID") を再計算して比較する。
// 比較は hmac.Equal（定数時間）。
func (g *RazorpayGateway) VerifySignature(providerOrderID string, providerPaymentID string, signature string) bool {
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(providerOrderID + "|" + providerPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *RazorpayGateway) Refund(ctx context.Context, providerPaymentID string, amount int64) error {
	_, err := g.client.Payment.Refund(providerPaymentID, int(amount), map[string]interface{}{}, nil)
	return err
}
