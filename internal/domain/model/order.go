package model

import "time"

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// 決済プロバイダ側の情報。更新するのは検証（verify）と返金だけ。
type PaymentInfo struct {
	ProviderOrderID   string        `gorm:"type:varchar(64);index" json:"provider_order_id"`
	ProviderPaymentID string        `gorm:"type:varchar(64)" json:"provider_payment_id"`
	Signature         string        `gorm:"type:varchar(128)" json:"-"`
	Status            PaymentStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Amount            int64         `gorm:"not null" json:"amount"` // 最小通貨単位
	Currency          string        `gorm:"type:varchar(8);not null" json:"currency"`
}

// status（配送系）と payment.status（決済系）は別の軸で持つ。
type Order struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         int64       `gorm:"not null;index" json:"user_id"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal       int64       `gorm:"not null" json:"subtotal"`
	TaxAmount      int64       `gorm:"not null" json:"tax_amount"`
	ShippingFee    int64       `gorm:"not null" json:"shipping_fee"`
	TotalAmount    int64       `gorm:"not null" json:"total_amount"`
	IdempotencyKey string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	Payment        PaymentInfo `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	CreatedAt      time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
