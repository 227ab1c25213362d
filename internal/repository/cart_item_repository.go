package repository

import (
	"context"

	"app/internal/domain/model"
)

// 明細はすべて (cart, product) で引く。APIが product_id 指定のため。
type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	FindByCartAndProduct(ctx context.Context, cartID int64, productID int64) (model.CartItem, error)
	// 同一商品はプラス
	AddQuantity(ctx context.Context, cartID int64, productID int64, addQty int64) error
	SetQuantity(ctx context.Context, cartID int64, productID int64, qty int64) error
	// 無ければ何もしない
	DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error
}
