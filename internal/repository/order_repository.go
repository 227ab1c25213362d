package repository

import (
	"context"
	"time"

	"app/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// 管理画面の集計
type OrderStats struct {
	TotalOrders  int64            `json:"total_orders"`
	TotalRevenue int64            `json:"total_revenue"` // payment.status = PAID の合計
	ByStatus     map[string]int64 `json:"by_status"`
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	// 決済結果の反映（status と payment_id / signature をまとめて更新）
	UpdatePaymentResult(ctx context.Context, orderID int64, status model.PaymentStatus, providerPaymentID string, signature string) error
	Delete(ctx context.Context, orderID int64) error

	//検索（同じキーなら同じ結果を返す）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	//管理者用の集計
	Stats(ctx context.Context) (OrderStats, error)
}
