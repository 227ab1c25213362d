package pricing

// 金額はすべて通貨の整数単位で扱う。
// ここがサーバー側の唯一の計算元。フロントの表示額はあくまでプレビュー。
const (
	TaxRatePercent        int64 = 18
	FreeShippingThreshold int64 = 1000
	FlatShippingFee       int64 = 50
)

// 1明細。Price/SalePrice は解決済みの商品価格を渡す。
type Line struct {
	Price     int64
	SalePrice int64 // 0は未設定
	Quantity  int64
}

type Totals struct {
	Subtotal      int64 `json:"subtotal"`
	TaxAmount     int64 `json:"tax_amount"`
	ShippingFee   int64 `json:"shipping_fee"`
	TotalAmount   int64 `json:"total_amount"`
	TotalQuantity int64 `json:"total_quantity"`
}

// セール価格は定価より「厳密に安い」ときだけ使う。
func EffectivePrice(price, salePrice int64) int64 {
	if salePrice > 0 && salePrice < price {
		return salePrice
	}
	return price
}

// Calculate は小計・税・送料・合計をまとめて返す。副作用なし。
// 送料無料は subtotal > 閾値 のときだけ。ちょうど閾値なら定額がかかる。
func Calculate(lines []Line) Totals {
	var t Totals

	for _, l := range lines {
		t.Subtotal += EffectivePrice(l.Price, l.SalePrice) * l.Quantity
		t.TotalQuantity += l.Quantity
	}

	t.TaxAmount = t.Subtotal * TaxRatePercent / 100

	if t.Subtotal > FreeShippingThreshold {
		t.ShippingFee = 0
	} else {
		t.ShippingFee = FlatShippingFee
	}

	t.TotalAmount = t.Subtotal + t.TaxAmount + t.ShippingFee
	return t
}
