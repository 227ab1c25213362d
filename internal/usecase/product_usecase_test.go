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

func TestProductUsecase_ListPublicProducts_Validation(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProductRepoMock))
	ctx := context.Background()

	tests := []struct {
		name string
		in   usecase.ListProductsInput
		want string
	}{
		{"page zero", usecase.ListProductsInput{Page: 0, Limit: 10}, "invalid page"},
		{"limit zero", usecase.ListProductsInput{Page: 1, Limit: 0}, "invalid limit"},
		{"limit too big", usecase.ListProductsInput{Page: 1, Limit: 101}, "invalid limit"},
		{"bad sort", usecase.ListProductsInput{Page: 1, Limit: 10, Sort: "rating"}, "invalid sort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ListPublicProducts(ctx, tt.in)
			assertErrContains(t, err, tt.want)
		})
	}
}

func TestProductUsecase_ListPublicProducts_PriceRange(t *testing.T) {
	uc := usecase.NewProductUsecase(new(ProductRepoMock))
	ctx := context.Background()

	min := int64(500)
	max := int64(100)
	_, err := uc.ListPublicProducts(ctx, usecase.ListProductsInput{Page: 1, Limit: 10, MinPrice: &min, MaxPrice: &max})
	assertErrContains(t, err, "min_price must be <= max_price")
}

func TestProductUsecase_ListPublicProducts_Success(t *testing.T) {
	productRepo := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(productRepo)
	ctx := context.Background()

	productRepo.On("ListPublic", mock.Anything, mock.MatchedBy(func(q repo.ProductListQuery) bool {
		return q.Page == 2 && q.Limit == 20 && q.Q == "mug" && q.Sort == "price_asc"
	})).Return([]model.Product{
		{ID: 100, Name: "mug", Price: 500, IsActive: true},
	}, int64(21), nil)

	out, err := uc.ListPublicProducts(ctx, usecase.ListProductsInput{Page: 2, Limit: 20, Q: " mug ", Sort: "price_asc"})

	assert.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(21), out.Total)
	assert.Equal(t, 2, out.Page)
}

func TestProductUsecase_GetProductDetail_InactiveIsHidden(t *testing.T) {
	productRepo := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(productRepo)
	ctx := context.Background()

	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "hidden", IsActive: false,
	}, nil)

	_, err := uc.GetProductDetail(ctx, 100)

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}

func TestProductUsecase_GetProductDetail_Success(t *testing.T) {
	productRepo := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(productRepo)
	ctx := context.Background()

	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "mug", Price: 500, SalePrice: 450, IsActive: true,
	}, nil)

	p, err := uc.GetProductDetail(ctx, 100)

	assert.NoError(t, err)
	assert.Equal(t, "mug", p.Name)
	assert.Equal(t, int64(450), p.EffectivePrice())
}

func TestProductUsecase_GetProductDetail_NotFound(t *testing.T) {
	productRepo := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(productRepo)
	ctx := context.Background()

	productRepo.On("FindByID", mock.Anything, int64(404)).Return(model.Product{}, repo.ErrNotFound)

	_, err := uc.GetProductDetail(ctx, 404)

	he, ok := usecase.AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)
}
