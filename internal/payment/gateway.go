package payment

import "context"

// 決済プロバイダの約束。Usecaseとテストはこれだけを見る。
// amount は最小通貨単位（INRならpaise）。
type Gateway interface {
	// プロバイダ側の注文を作り、その注文IDを返す
	CreateOrder(ctx context.Context, amount int64, currency string, receipt string) (string, error)

	// コールバック署名の検証
	VerifySignature(providerOrderID string, providerPaymentID string, signature string) bool

	// 返金
	Refund(ctx context.Context, providerPaymentID string, amount int64) error

	// フロントに渡す公開キーID
	KeyID() string
}
