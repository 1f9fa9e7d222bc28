package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductFixture() (*ProductService, *fakeProductRepo) {
	repo := newFakeProductRepo()
	svc := NewProductService(repo, &fakeSeqRepo{}, newTestLogger())
	return svc, repo
}

func TestCreateProduct(t *testing.T) {
	svc, repo := newProductFixture()

	product, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name:     "Ceramic Mug",
		Price:    "12.50",
		Stock:    10,
		Category: "kitchen",
		Colors:   []string{"white", "blue"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), product.ID)
	assert.Equal(t, "PRD00001", product.ProductsID)
	assert.Equal(t, "ceramic-mug", product.Slug, "slug derived from name")
	assert.True(t, product.Price.Equal(decimal.RequireFromString("12.50")))
	assert.NotNil(t, repo.products[1])
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newProductFixture()

	_, err := svc.CreateProduct(context.Background(), CreateProductRequest{Price: "10"})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = svc.CreateProduct(context.Background(), CreateProductRequest{Name: "Mug", Price: "abc"})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = svc.CreateProduct(context.Background(), CreateProductRequest{Name: "Mug", Price: "-1"})
	assert.ErrorIs(t, err, ErrInvalidProduct)

	_, err = svc.CreateProduct(context.Background(), CreateProductRequest{Name: "Mug", Price: "10", Stock: -2})
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestGetProductByAnyReference(t *testing.T) {
	svc, _ := newProductFixture()

	created, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name: "Ceramic Mug", Price: "12.50", Stock: 10,
	})
	require.NoError(t, err)

	for _, ref := range []string{"1", "PRD00001", "ceramic-mug"} {
		got, err := svc.GetProduct(context.Background(), ref)
		require.NoError(t, err, "lookup by %q", ref)
		assert.Equal(t, created.ID, got.ID)
	}

	_, err = svc.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateProduct(t *testing.T) {
	svc, repo := newProductFixture()

	created, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name: "Ceramic Mug", Price: "12.50", Stock: 10,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(context.Background(), "PRD00001", CreateProductRequest{
		Name: "Ceramic Mug", Price: "14.00", Stock: 8,
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.ProductsID, updated.ProductsID, "external id survives updates")
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("14.00")))
	assert.True(t, repo.products[created.ID].Price.Equal(decimal.RequireFromString("14.00")))

	_, err = svc.UpdateProduct(context.Background(), "missing", CreateProductRequest{
		Name: "Mug", Price: "1",
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}
