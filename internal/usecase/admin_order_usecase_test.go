package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type adminFixture struct {
	uc         *usecase.AdminOrderUsecase
	tx         *TxManagerMock
	orders     *OrderRepoMock
	orderItems *OrderItemRepoMock
	audit      *AuditRepoMock
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		orders:     new(OrderRepoMock),
		orderItems: new(OrderItemRepoMock),
		audit:      new(AuditRepoMock),
	}
	f.tx = &TxManagerMock{Repos: &TxReposMock{
		orders:     f.orders,
		orderItems: f.orderItems,
		carts:      new(CartRepoMock),
		cartItems:  new(CartItemRepoMock),
		inventory:  new(InventoryRepoMock),
		products:   new(ProductRepoMock),
	}}
	f.tx.On("WithinTx", mock.Anything).Return()
	f.uc = usecase.NewAdminOrderUsecase(f.tx, f.audit)
	return f
}

func TestAdminOrderUsecase_List_InvalidPaging(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	_, err := f.uc.List(ctx, repo.AdminOrderListFilter{Page: 0, Limit: 10})
	assertErrContains(t, err, "invalid page")

	_, err = f.uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 0})
	assertErrContains(t, err, "invalid limit")

	_, err = f.uc.List(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 101})
	assertErrContains(t, err, "invalid limit")
}

func TestAdminOrderUsecase_List_Success(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	filter := repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: "PROCESSING"}
	f.orders.On("ListAdmin", mock.Anything, filter).Return([]model.Order{
		{ID: 7, UserID: 1, Status: model.OrderStatusProcessing, TotalAmount: 1230},
	}, int64(1), nil)
	f.orderItems.On("ListByOrderID", mock.Anything, int64(7)).Return([]model.OrderItem{
		{OrderID: 7, ProductID: 100, ProductNameSnapshot: "mug", UnitPriceSnapshot: 500, Quantity: 2},
	}, nil)

	outs, err := f.uc.List(ctx, filter)

	assert.NoError(t, err)
	assert.Len(t, outs, 1)
	assert.Equal(t, "PROCESSING", outs[0].Status)
	assert.Len(t, outs[0].Items, 1)
}

func TestAdminOrderUsecase_UpdateStatus_InvalidStatus(t *testing.T) {
	f := newAdminFixture()

	err := f.uc.UpdateStatus(context.Background(), 9, 7, usecase.AdminUpdateOrderStatusInput{Status: "TELEPORTED"})

	assertErrContains(t, err, "invalid status")
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

// 管理者はどの状態からどの状態へも変えられる
func TestAdminOrderUsecase_UpdateStatus_AnyTransition(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	f.orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID: 7, UserID: 1, Status: model.OrderStatusDelivered,
	}, nil)
	f.orders.On("UpdateStatus", mock.Anything, int64(7), model.OrderStatusProcessing).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == 9 &&
			l.Action == model.AuditActionUpdateOrderStatus &&
			l.ResourceID == 7 &&
			l.BeforeJSON == `{"status":"DELIVERED"}` &&
			l.AfterJSON == `{"status":"PROCESSING"}`
	})).Return(nil)

	err := f.uc.UpdateStatus(ctx, 9, 7, usecase.AdminUpdateOrderStatusInput{Status: "processing"})

	assert.NoError(t, err)
	f.orders.AssertCalled(t, "UpdateStatus", mock.Anything, int64(7), model.OrderStatusProcessing)
	f.audit.AssertExpectations(t)
}

// 同じステータスなら何もしないで成功
func TestAdminOrderUsecase_UpdateStatus_SameStatusNoop(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	f.orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID: 7, UserID: 1, Status: model.OrderStatusShipped,
	}, nil)

	err := f.uc.UpdateStatus(ctx, 9, 7, usecase.AdminUpdateOrderStatusInput{Status: "SHIPPED"})

	assert.NoError(t, err)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	f.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_NotFound(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	f.orders.On("FindByID", mock.Anything, int64(404)).Return(model.Order{}, repo.ErrNotFound)

	err := f.uc.UpdateStatus(ctx, 9, 404, usecase.AdminUpdateOrderStatusInput{Status: "SHIPPED"})

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestAdminOrderUsecase_Delete_Success(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	f.orders.On("FindByID", mock.Anything, int64(7)).Return(model.Order{
		ID: 7, UserID: 1, Status: model.OrderStatusCancelled,
	}, nil)
	f.orderItems.On("DeleteByOrderID", mock.Anything, int64(7)).Return(nil)
	f.orders.On("Delete", mock.Anything, int64(7)).Return(nil)
	f.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionDeleteOrder && l.ResourceID == 7
	})).Return(nil)

	err := f.uc.Delete(ctx, 9, 7)

	assert.NoError(t, err)
	f.orderItems.AssertCalled(t, "DeleteByOrderID", mock.Anything, int64(7))
	f.orders.AssertCalled(t, "Delete", mock.Anything, int64(7))
	f.audit.AssertExpectations(t)
}

func TestAdminOrderUsecase_AuditLogs(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	action := model.AuditActionRefundPayment
	filter := repo.AuditLogFilter{Action: &action, Limit: 10}
	f.audit.On("List", mock.Anything, filter).Return([]model.AuditLog{
		{ID: 1, ActorUserID: 9, Action: action, ResourceID: 7},
	}, nil)

	logs, err := f.uc.AuditLogs(ctx, filter)

	assert.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, model.AuditActionRefundPayment, logs[0].Action)

	_, err = f.uc.AuditLogs(ctx, repo.AuditLogFilter{Limit: 101})
	assertErrContains(t, err, "invalid limit")
}

func TestAdminOrderUsecase_Stats(t *testing.T) {
	f := newAdminFixture()
	ctx := context.Background()

	want := repo.OrderStats{
		TotalOrders:  12,
		TotalRevenue: 45600,
		ByStatus: map[string]int64{
			"PROCESSING": 4,
			"DELIVERED":  8,
		},
	}
	f.orders.On("Stats", mock.Anything).Return(want, nil)

	got, err := f.uc.Stats(ctx)

	assert.NoError(t, err)
	assert.Equal(t, want, got)
}
