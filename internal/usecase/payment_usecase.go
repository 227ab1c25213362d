package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/payment"
	"app/internal/pricing"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

// PaymentUsecase はチェックアウト〜決済検証〜返金までを持つ。
// 在庫の減算は検証（verify）成功時の1回だけ。注文作成では予約しない。
type PaymentUsecase struct {
	tx        repo.TransactionManager
	gateway   payment.Gateway
	auditRepo repo.AuditLogRepository
	currency  string
}

func NewPaymentUsecase(
	tx repo.TransactionManager,
	gateway payment.Gateway,
	auditRepo repo.AuditLogRepository,
	currency string,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:        tx,
		gateway:   gateway,
		auditRepo: auditRepo,
		currency:  currency,
	}
}

type CreateCheckoutInput struct {
	// 0ならカートから。指定すれば「今すぐ購入」。
	ProductID      int64
	Quantity       int64
	IdempotencyKey string
}

// フロントの決済UIへの受け渡し。
type CheckoutOutput struct {
	ProviderOrderID string `json:"razorpay_order_id"`
	Amount          int64  `json:"amount"` // 最小通貨単位
	Currency        string `json:"currency"`
	Key             string `json:"key"`
	OrderID         int64  `json:"order_id"`
}

type VerifyPaymentInput struct {
	ProviderOrderID   string
	ProviderPaymentID string
	Signature         string
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Subtotal      int64             `json:"subtotal"`
	TaxAmount     int64             `json:"tax_amount"`
	ShippingFee   int64             `json:"shipping_fee"`
	TotalAmount   int64             `json:"total_amount"`
	CreatedAt     time.Time         `json:"created_at"`
	Items         []OrderItemOutput `json:"items"`
}

// 決済は最小通貨単位で渡す（INRならルピー→paise）。
const providerUnitFactor int64 = 100

// チェックアウト本体。
//  1. 明細解決（カート or 今すぐ購入）＋在庫の事前チェック
//  2. 金額計算
//  3. プロバイダ注文作成
//  4. 注文＋明細スナップショットの永続化（PENDING）
//
// 在庫はここでは減らさない。事前チェックはあくまで現在値に対する確認。
func (u *PaymentUsecase) CreateCheckout(ctx context.Context, userID int64, in CreateCheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	if key == "" {
		key = uuid.NewString()
	}

	// 同じキーなら同じ結果
	var out CheckoutOutput
	var replayed bool
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			out = toCheckoutOutput(existing, u.gateway.KeyID())
			replayed = true
		}
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, err
	}
	if replayed {
		return out, nil
	}

	// 明細解決＋金額計算（読み取りのみ）
	var orderItems []model.OrderItem
	var totals pricing.Totals
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		orderItems, totals, err = u.resolveLines(ctx, r, userID, in)
		return err
	})
	if err != nil {
		return CheckoutOutput{}, err
	}

	// プロバイダ注文（DBトランザクションの外）
	amount := totals.TotalAmount * providerUnitFactor
	receipt := uuid.NewString()
	providerOrderID, err := u.gateway.CreateOrder(ctx, amount, u.currency, receipt)
	if err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "payment provider error")
	}

	// 注文の永続化
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := time.Now()
		orderID, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			Status:         model.OrderStatusProcessing,
			Subtotal:       totals.Subtotal,
			TaxAmount:      totals.TaxAmount,
			ShippingFee:    totals.ShippingFee,
			TotalAmount:    totals.TotalAmount,
			IdempotencyKey: key,
			Payment: model.PaymentInfo{
				ProviderOrderID: providerOrderID,
				Status:          model.PaymentStatusPending,
				Amount:          amount,
				Currency:        u.currency,
			},
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			//競合（同時で同じキーが入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, userID, key)
			if err2 == nil && found2 {
				out = toCheckoutOutput(ex2, u.gateway.KeyID())
				return nil
			}
			return NewHTTPError(http.StatusBadRequest, "idempotency conflict")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = CheckoutOutput{
			ProviderOrderID: providerOrderID,
			Amount:          amount,
			Currency:        u.currency,
			Key:             u.gateway.KeyID(),
			OrderID:         orderID,
		}
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, err
	}
	return out, nil
}

// カート（またはproduct_id指定の1明細）を注文明細スナップショットに解決する。
func (u *PaymentUsecase) resolveLines(ctx context.Context, r repo.TxRepos, userID int64, in CreateCheckoutInput) ([]model.OrderItem, pricing.Totals, error) {
	type line struct {
		productID int64
		quantity  int64
	}
	var lines []line

	if in.ProductID > 0 {
		// 今すぐ購入
		if in.Quantity < 1 {
			return nil, pricing.Totals{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		lines = []line{{productID: in.ProductID, quantity: in.Quantity}}
	} else {
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if err == repo.ErrNotFound {
			return nil, pricing.Totals{}, NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return nil, pricing.Totals{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return nil, pricing.Totals{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return nil, pricing.Totals{}, NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		for _, ci := range cartItems {
			lines = append(lines, line{productID: ci.ProductID, quantity: ci.Quantity})
		}
	}

	now := time.Now()
	orderItems := make([]model.OrderItem, 0, len(lines))
	priceLines := make([]pricing.Line, 0, len(lines))

	for _, l := range lines {
		p, err := r.Products().FindByID(ctx, l.productID)
		if err == repo.ErrNotFound {
			return nil, pricing.Totals{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		if err != nil {
			return nil, pricing.Totals{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			return nil, pricing.Totals{}, NewHTTPError(http.StatusNotFound, "product not found")
		}

		// 事前チェック。確定時（verify）に条件付き減算で再判定する。
		if l.quantity > p.Stock {
			return nil, pricing.Totals{}, NewHTTPError(http.StatusBadRequest, fmt.Sprintf("insufficient stock: %s", p.Name))
		}

		orderItems = append(orderItems, model.OrderItem{
			ProductID:           l.productID,
			ProductNameSnapshot: p.Name,
			UnitPriceSnapshot:   p.EffectivePrice(),
			Quantity:            l.quantity,
			CreatedAt:           now,
		})
		priceLines = append(priceLines, pricing.Line{
			Price:     p.Price,
			SalePrice: p.SalePrice,
			Quantity:  l.quantity,
		})
	}

	return orderItems, pricing.Calculate(priceLines), nil
}

// 決済検証＝確定処理。
// 署名OKなら1トランザクションで 決済PAID＋在庫減算＋カートクリア を行う。
// どれか1つでも失敗したら全部巻き戻す。
func (u *PaymentUsecase) VerifyPayment(ctx context.Context, in VerifyPaymentInput) (OrderOutput, error) {
	if strings.TrimSpace(in.ProviderOrderID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid razorpay_order_id")
	}
	if strings.TrimSpace(in.ProviderPaymentID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid razorpay_payment_id")
	}
	if strings.TrimSpace(in.Signature) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid razorpay_signature")
	}

	// 注文の特定
	var order model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByProviderOrderID(ctx, in.ProviderOrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		order = o
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	// 署名不一致はFAILEDだけ記録して終わり。在庫・カートは触らない。
	// 確定済み（PAID）の注文は偽のコールバックで巻き戻さない。
	if !u.gateway.VerifySignature(in.ProviderOrderID, in.ProviderPaymentID, in.Signature) {
		_ = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			o, err := r.Orders().FindByID(ctx, order.ID)
			if err != nil {
				return err
			}
			if o.Payment.Status == model.PaymentStatusPaid {
				return nil
			}
			return r.Orders().UpdatePaymentResult(ctx, o.ID, model.PaymentStatusFailed, "", "")
		})
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "signature mismatch")
	}

	var out OrderOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// tx内で取り直して、再送でも減算が2回走らないようにする
		o, err := r.Orders().FindByID(ctx, order.ID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if o.Payment.Status == model.PaymentStatusPaid {
			out = toOrderOutput(o, items)
			return nil
		}

		if err := r.Orders().UpdatePaymentResult(ctx, o.ID, model.PaymentStatusPaid, in.ProviderPaymentID, in.Signature); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫減算（足りないなら false → 全体ロールバック）
		for _, it := range items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}
		}

		//カートクリア（カートが無ければ何もしない）
		cart, err := r.Carts().FindActiveByUserID(ctx, o.UserID)
		if err == nil {
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		} else if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Payment.Status = model.PaymentStatusPaid
		o.Payment.ProviderPaymentID = in.ProviderPaymentID
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 購入者によるキャンセル。PROCESSINGのときだけ。
// 在庫は戻さないし返金もしない（返金は管理者の明示操作）。
func (u *PaymentUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "order not found")
		}

		if o.Status != model.OrderStatusProcessing {
			return NewHTTPError(http.StatusBadRequest, "cancellation not allowed")
		}

		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 管理者による返金。PAIDのときだけ。
// プロバイダ返金→1トランザクションで REFUNDED＋注文CANCELLED＋在庫戻し。
func (u *PaymentUsecase) RefundPayment(ctx context.Context, adminUserID int64, orderID int64) (OrderOutput, error) {
	if adminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var order model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		order = o
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if order.Payment.Status != model.PaymentStatusPaid {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "refund not allowed")
	}

	// プロバイダ返金（DBトランザクションの外）
	if err := u.gateway.Refund(ctx, order.Payment.ProviderPaymentID, order.Payment.Amount); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "payment provider error")
	}

	var out OrderOutput
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// tx内で取り直して、同時送信でも返金・在庫戻しが2回走らないようにする
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.Payment.Status != model.PaymentStatusPaid {
			return NewHTTPError(http.StatusBadRequest, "refund not allowed")
		}

		if err := r.Orders().UpdatePaymentResult(ctx, orderID, model.PaymentStatusRefunded, "", ""); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫戻し
		for _, it := range items {
			if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		o.Payment.Status = model.PaymentStatusRefunded
		o.Status = model.OrderStatusCancelled
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	//監査ログ（REFUND_PAYMENT）
	beforeJSON := `{"payment_status":"PAID"}`
	afterJSON := `{"payment_status":"REFUNDED","status":"CANCELLED"}`
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionRefundPayment,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   orderID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	}); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return out, nil
}

func (u *PaymentUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) ([]OrderOutput, error) {
	if userID <= 0 {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return []OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func toCheckoutOutput(o model.Order, keyID string) CheckoutOutput {
	return CheckoutOutput{
		ProviderOrderID: o.Payment.ProviderOrderID,
		Amount:          o.Payment.Amount,
		Currency:        o.Payment.Currency,
		Key:             keyID,
		OrderID:         o.ID,
	}
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentStatus: string(o.Payment.Status),
		Subtotal:      o.Subtotal,
		TaxAmount:     o.TaxAmount,
		ShippingFee:   o.ShippingFee,
		TotalAmount:   o.TotalAmount,
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
	}
}
