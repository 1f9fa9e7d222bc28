package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/models"
	"storefront-backend/internal/repositories"
	"storefront-backend/pkg/logger"
)

func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:  logger.LevelError,
		Format: "text",
		Output: "stderr",
	})
}

// fakeProductRepo keeps products in memory and mimics the conditional
// stock decrement of the real repository.
type fakeProductRepo struct {
	products      map[int64]*models.Product
	decrementHook func(id int64)
}

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: make(map[int64]*models.Product)}
	for _, p := range products {
		copied := *p
		repo.products[p.ID] = &copied
	}
	return repo
}

func (f *fakeProductRepo) GetByID(_ context.Context, id int64) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeProductRepo) GetByProductsID(_ context.Context, productsID string) (*models.Product, error) {
	for _, p := range f.products {
		if p.ProductsID == productsID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeProductRepo) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	for _, p := range f.products {
		if p.Slug == slug {
			copied := *p
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeProductRepo) GetAll(_ context.Context) ([]*models.Product, error) {
	out := make([]*models.Product, 0, len(f.products))
	for _, p := range f.products {
		copied := *p
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeProductRepo) Add(_ context.Context, product *models.Product) error {
	copied := *product
	f.products[product.ID] = &copied
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, id int64, product *models.Product) error {
	if _, ok := f.products[id]; !ok {
		return repositories.ErrNotFound
	}
	copied := *product
	copied.ID = id
	f.products[id] = &copied
	return nil
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, id int64, quantity int64) error {
	if f.decrementHook != nil {
		f.decrementHook(id)
	}
	p, ok := f.products[id]
	if !ok || p.Stock < quantity {
		return repositories.ErrStockConflict
	}
	p.Stock -= quantity
	return nil
}

func (f *fakeProductRepo) stock(id int64) int64 {
	return f.products[id].Stock
}

type fakeOrderRepo struct {
	orders []*models.Order
}

func (f *fakeOrderRepo) Add(_ context.Context, order *models.Order) error {
	copied := *order
	f.orders = append(f.orders, &copied)
	return nil
}

func (f *fakeOrderRepo) GetByIDForUser(_ context.Context, id int64, userID *int64) (*models.Order, error) {
	for _, o := range f.orders {
		if o.ID != id {
			continue
		}
		if userID == nil && o.UserID == nil {
			copied := *o
			return &copied, nil
		}
		if userID != nil && o.UserID != nil && *userID == *o.UserID {
			copied := *o
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderRepo) GetByCodeAndEmail(_ context.Context, code, email string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.Code == code && o.Email == email {
			copied := *o
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID int64, page, limit int64) ([]*models.Order, int64, error) {
	var owned []*models.Order
	for _, o := range f.orders {
		if o.UserID != nil && *o.UserID == userID {
			copied := *o
			owned = append(owned, &copied)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].CreatedAt.After(owned[j].CreatedAt)
		}
		return owned[i].ID > owned[j].ID
	})

	total := int64(len(owned))
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return owned[start:end], total, nil
}

type fakeSeqRepo struct {
	counters map[string]int64
}

func (f *fakeSeqRepo) Next(_ context.Context, name string) (int64, error) {
	if f.counters == nil {
		f.counters = make(map[string]int64)
	}
	f.counters[name]++
	return f.counters[name], nil
}

// fakeTx emulates transaction rollback by snapshotting repository state
// before running fn and restoring it when fn fails.
type fakeTx struct {
	products *fakeProductRepo
	orders   *fakeOrderRepo
}

func (f *fakeTx) RunTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	productSnapshot := make(map[int64]*models.Product, len(f.products.products))
	for id, p := range f.products.products {
		copied := *p
		productSnapshot[id] = &copied
	}
	orderSnapshot := append([]*models.Order(nil), f.orders.orders...)

	if err := fn(ctx); err != nil {
		f.products.products = productSnapshot
		f.orders.orders = orderSnapshot
		return err
	}
	return nil
}

func newOrderServiceFixture(products ...*models.Product) (*OrderService, *fakeProductRepo, *fakeOrderRepo) {
	productRepo := newFakeProductRepo(products...)
	orderRepo := &fakeOrderRepo{}
	tx := &fakeTx{products: productRepo, orders: orderRepo}
	svc := NewOrderService(orderRepo, productRepo, &fakeSeqRepo{}, tx, newTestLogger())
	return svc, productRepo, orderRepo
}

func testProduct(id int64, name, price string, stock int64) *models.Product {
	return &models.Product{
		ID:         id,
		ProductsID: fmt.Sprintf("PRD%05d", id),
		Slug:       name,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      stock,
	}
}

func validRequest(items ...CreateOrderItemRequest) CreateOrderRequest {
	return CreateOrderRequest{
		Items:         items,
		Firstname:     "Ada",
		Lastname:      "Lovelace",
		Address:       "12 Analytical Way",
		Phonenumber:   "555-0100",
		Email:         "ada@example.com",
		PaymentMethod: "cod",
	}
}

func TestCreateOrderComputesTotalAndDecrementsStock(t *testing.T) {
	svc, products, orders := newOrderServiceFixture(
		testProduct(1, "mug", "10", 5),
		testProduct(2, "kettle", "20", 3),
	)

	userID := int64(7)
	order, err := svc.CreateOrder(context.Background(), &userID, validRequest(
		CreateOrderItemRequest{ProductID: 1, Quantity: 2},
		CreateOrderItemRequest{ProductID: 2, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, "ORD00001", order.Code)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "pending", order.PaymentStatus)
	assert.Equal(t, "Ada Lovelace", order.CustomerName)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("40")),
		"expected total 40, got %s", order.TotalPrice)
	assert.True(t, order.ProductsPrice.Equal(order.TotalPrice))

	require.Len(t, order.Items, 2)
	assert.Equal(t, "mug", order.Items[0].Name)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.RequireFromString("10")))
	assert.Equal(t, int64(2), order.Items[0].Quantity)
	assert.Equal(t, "mug x2, kettle x1", order.ItemsSummary)

	assert.Equal(t, int64(3), products.stock(1))
	assert.Equal(t, int64(2), products.stock(2))
	assert.Len(t, orders.orders, 1)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc, products, orders := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	_, err := svc.CreateOrder(context.Background(), nil, validRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, orders.orders)
	assert.Equal(t, int64(5), products.stock(1))
}

func TestCreateOrderNonPositiveQuantity(t *testing.T) {
	svc, _, orders := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	for _, quantity := range []int64{0, -3} {
		_, err := svc.CreateOrder(context.Background(), nil, validRequest(
			CreateOrderItemRequest{ProductID: 1, Quantity: quantity},
		))
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Empty(t, orders.orders)
}

func TestCreateOrderMissingShippingDetails(t *testing.T) {
	svc, _, _ := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	req := validRequest(CreateOrderItemRequest{ProductID: 1, Quantity: 1})
	req.Address = ""
	_, err := svc.CreateOrder(context.Background(), nil, req)
	assert.ErrorIs(t, err, ErrMissingDetails)
}

func TestCreateOrderProductNotFound(t *testing.T) {
	svc, _, orders := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	_, err := svc.CreateOrder(context.Background(), nil, validRequest(
		CreateOrderItemRequest{ProductID: 42, Quantity: 1},
	))
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, orders.orders)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	svc, products, orders := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	_, err := svc.CreateOrder(context.Background(), nil, validRequest(
		CreateOrderItemRequest{ProductID: 1, Quantity: 99999},
	))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, int64(5), products.stock(1))
	assert.Empty(t, orders.orders)
}

func TestCreateOrderAllOrNothing(t *testing.T) {
	svc, products, orders := newOrderServiceFixture(
		testProduct(1, "mug", "10", 5),
		testProduct(2, "kettle", "20", 3),
	)

	_, err := svc.CreateOrder(context.Background(), nil, validRequest(
		CreateOrderItemRequest{ProductID: 1, Quantity: 2},
		CreateOrderItemRequest{ProductID: 2, Quantity: 10},
	))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, int64(5), products.stock(1), "first item's stock must be untouched")
	assert.Equal(t, int64(3), products.stock(2))
	assert.Empty(t, orders.orders)
}

func TestCreateOrderDecrementConflictRollsBack(t *testing.T) {
	svc, products, orders := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	// Drain the stock between the precheck and the decrement, the way a
	// concurrent order would.
	drained := false
	products.decrementHook = func(id int64) {
		if !drained {
			drained = true
			products.products[id].Stock = 0
		}
	}

	_, err := svc.CreateOrder(context.Background(), nil, validRequest(
		CreateOrderItemRequest{ProductID: 1, Quantity: 2},
	))
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Empty(t, orders.orders, "order header must roll back with the decrement")
	assert.Equal(t, int64(5), products.stock(1))
}

func TestCreateOrderSequentialDisplayCodes(t *testing.T) {
	svc, _, _ := newOrderServiceFixture(testProduct(1, "mug", "10", 50))

	first, err := svc.CreateOrder(context.Background(), nil, validRequest(
		CreateOrderItemRequest{ProductID: 1, Quantity: 1},
	))
	require.NoError(t, err)
	second, err := svc.CreateOrder(context.Background(), nil, validRequest(
		CreateOrderItemRequest{ProductID: 1, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, "ORD00001", first.Code)
	assert.Equal(t, "ORD00002", second.Code)
	assert.Greater(t, second.ID, first.ID)
}

func TestCreateOrderIgnoresClientTotal(t *testing.T) {
	svc, _, _ := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	clientTotal := 1.00
	req := validRequest(CreateOrderItemRequest{ProductID: 1, Quantity: 2})
	req.TotalAmount = &clientTotal

	order, err := svc.CreateOrder(context.Background(), nil, req)
	require.NoError(t, err)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("20")),
		"client-supplied total must not be persisted, got %s", order.TotalPrice)
}

func TestCreateOrderResolvesByExternalIDAndSlug(t *testing.T) {
	svc, _, _ := newOrderServiceFixture(
		testProduct(1, "mug", "10", 5),
		testProduct(2, "kettle", "20", 5),
	)

	order, err := svc.CreateOrder(context.Background(), nil, validRequest(
		CreateOrderItemRequest{ProductsID: "PRD00001", Quantity: 1},
		CreateOrderItemRequest{ProductSlug: "kettle", Quantity: 1},
	))
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(1), order.Items[0].ProductID)
	assert.Equal(t, int64(2), order.Items[1].ProductID)
}

func TestCreateOrderGuest(t *testing.T) {
	svc, _, orders := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	order, err := svc.CreateOrder(context.Background(), nil, validRequest(
		CreateOrderItemRequest{ProductID: 1, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Nil(t, order.UserID)
	assert.Len(t, orders.orders, 1)
}

func TestGetOrderByIDScopedToOwner(t *testing.T) {
	svc, _, _ := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	owner := int64(7)
	created, err := svc.CreateOrder(context.Background(), &owner, validRequest(
		CreateOrderItemRequest{ProductID: 1, Quantity: 1},
	))
	require.NoError(t, err)

	got, err := svc.GetOrderByID(context.Background(), created.ID, &owner)
	require.NoError(t, err)
	assert.Equal(t, created.Code, got.Code)

	other := int64(8)
	_, err = svc.GetOrderByID(context.Background(), created.ID, &other)
	assert.ErrorIs(t, err, ErrOrderNotFound, "another user's order must read as not found")

	_, err = svc.GetOrderByID(context.Background(), created.ID, nil)
	assert.ErrorIs(t, err, ErrOrderNotFound, "guest scope must not reach owned orders")
}

func TestGetOrderHistoryPagination(t *testing.T) {
	svc, _, orders := newOrderServiceFixture(testProduct(1, "mug", "10", 100))

	owner := int64(7)
	for i := 0; i < 5; i++ {
		_, err := svc.CreateOrder(context.Background(), &owner, validRequest(
			CreateOrderItemRequest{ProductID: 1, Quantity: 1},
		))
		require.NoError(t, err)
	}
	// Stagger timestamps so newest-first ordering is observable.
	for i, o := range orders.orders {
		o.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
	}

	page, pagination, err := svc.GetOrderHistory(context.Background(), owner, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(5), pagination.Total)
	assert.Equal(t, int64(3), pagination.TotalPages)
	assert.Equal(t, "ORD00005", page[0].Code, "newest order first")

	last, _, err := svc.GetOrderHistory(context.Background(), owner, 3, 2)
	require.NoError(t, err)
	assert.Len(t, last, 1)
}

func TestGetOrderHistoryDefaults(t *testing.T) {
	svc, _, _ := newOrderServiceFixture()

	_, pagination, err := svc.GetOrderHistory(context.Background(), 7, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pagination.Page)
	assert.Equal(t, int64(10), pagination.Limit)
}

func TestLookupGuestOrder(t *testing.T) {
	svc, _, _ := newOrderServiceFixture(testProduct(1, "mug", "10", 5))

	created, err := svc.CreateOrder(context.Background(), nil, validRequest(
		CreateOrderItemRequest{ProductID: 1, Quantity: 1},
	))
	require.NoError(t, err)

	got, err := svc.LookupGuestOrder(context.Background(), created.Code, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.LookupGuestOrder(context.Background(), created.Code, "mallory@example.com")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.LookupGuestOrder(context.Background(), "", "ada@example.com")
	assert.ErrorIs(t, err, ErrMissingDetails)
}
