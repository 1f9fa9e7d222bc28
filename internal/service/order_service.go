package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/models"
	"storefront-backend/internal/repositories"
	"storefront-backend/pkg/logger"
)

// CreateOrderItemRequest carries one requested line item. A product may
// be referenced by internal id, external products_id, or slug; the first
// match in that order wins.
type CreateOrderItemRequest struct {
	ProductID   int64  `json:"product_id"`
	ProductsID  string `json:"products_id"`
	ProductSlug string `json:"product_slug"`
	Quantity    int64  `json:"quantity"`
	Color       string `json:"color"`
	Size        string `json:"size"`
}

type CreateOrderRequest struct {
	Items         []CreateOrderItemRequest `json:"items"`
	Firstname     string                   `json:"firstname"`
	Lastname      string                   `json:"lastname"`
	Address       string                   `json:"address"`
	Phonenumber   string                   `json:"phonenumber"`
	Email         string                   `json:"email"`
	PaymentMethod string                   `json:"payment_method"`
	// TotalAmount is accepted for request compatibility but never
	// persisted; the total is always computed from resolved prices.
	TotalAmount *float64 `json:"total_amount"`
}

// TransactionRunner wraps the storage transaction boundary so the
// workflow can be tested without a live database.
type TransactionRunner interface {
	RunTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, userID *int64, req CreateOrderRequest) (*models.Order, error)
	GetOrderHistory(ctx context.Context, userID int64, page, limit int64) ([]*models.Order, models.Pagination, error)
	GetOrderByID(ctx context.Context, id int64, userID *int64) (*models.Order, error)
	LookupGuestOrder(ctx context.Context, code, email string) (*models.Order, error)
}

type OrderService struct {
	orderRepo   repositories.OrderRepositoryInterface
	productRepo repositories.ProductRepositoryInterface
	seqRepo     repositories.SequenceRepositoryInterface
	tx          TransactionRunner
	logger      *logger.Logger
}

func NewOrderService(orderRepo repositories.OrderRepositoryInterface, productRepo repositories.ProductRepositoryInterface, seqRepo repositories.SequenceRepositoryInterface, tx TransactionRunner, log *logger.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		seqRepo:     seqRepo,
		tx:          tx,
		logger:      log.WithComponent("order_service"),
	}
}

// CreateOrder runs the full order workflow: validate, resolve each item
// to a product, check stock, compute the total, persist the header with
// its snapshot, and decrement stock per item. Everything after
// validation runs inside one transaction, so any failure leaves no
// partial order and no partial stock change.
func (s *OrderService) CreateOrder(ctx context.Context, userID *int64, req CreateOrderRequest) (*models.Order, error) {
	s.logger.Info("Creating new order", "items", len(req.Items), "guest", userID == nil)

	if err := s.validateCreateRequest(req); err != nil {
		s.logger.Warn("Create failed: invalid data", "error", err)
		return nil, err
	}

	var order *models.Order

	err := s.tx.RunTransaction(ctx, func(txCtx context.Context) error {
		products := make([]*models.Product, len(req.Items))
		snapshot := make([]models.OrderItem, len(req.Items))
		summary := make([]string, len(req.Items))
		total := decimal.Zero

		for i, item := range req.Items {
			product, err := s.resolveProduct(txCtx, item)
			if err != nil {
				return err
			}

			if item.Quantity > product.Stock {
				return fmt.Errorf("%w: %s (requested %d, available %d)",
					ErrInsufficientStock, product.Name, item.Quantity, product.Stock)
			}

			products[i] = product
			snapshot[i] = models.OrderItem{
				ProductID:  product.ID,
				ProductsID: product.ProductsID,
				Name:       product.Name,
				Quantity:   item.Quantity,
				UnitPrice:  product.Price,
				Color:      item.Color,
				Size:       item.Size,
			}
			summary[i] = fmt.Sprintf("%s x%d", product.Name, item.Quantity)
			total = total.Add(product.Price.Mul(decimal.NewFromInt(item.Quantity)))
		}

		if req.TotalAmount != nil {
			clientTotal := decimal.NewFromFloat(*req.TotalAmount)
			if !clientTotal.Equal(total) {
				s.logger.Warn("Client-supplied total ignored",
					"client_total", clientTotal.String(),
					"computed_total", total.String())
			}
		}

		id, err := s.seqRepo.Next(txCtx, "orders")
		if err != nil {
			return err
		}

		order = &models.Order{
			ID:            id,
			Code:          fmt.Sprintf("ORD%05d", id),
			UserID:        userID,
			CustomerName:  strings.TrimSpace(req.Firstname + " " + req.Lastname),
			Address:       req.Address,
			Phone:         req.Phonenumber,
			Email:         req.Email,
			ProductsPrice: total,
			TotalPrice:    total,
			PaymentMethod: req.PaymentMethod,
			PaymentStatus: "pending",
			Status:        "pending",
			Items:         snapshot,
			ItemsSummary:  strings.Join(summary, ", "),
			CreatedAt:     time.Now(),
		}

		if err := s.orderRepo.Add(txCtx, order); err != nil {
			return err
		}

		for i, item := range req.Items {
			if err := s.productRepo.DecrementStock(txCtx, products[i].ID, item.Quantity); err != nil {
				if errors.Is(err, repositories.ErrStockConflict) {
					return fmt.Errorf("%w: %s", ErrInsufficientStock, products[i].Name)
				}
				return err
			}
		}

		return nil
	})
	if err != nil {
		s.logger.Warn("Order creation rolled back", "error", err)
		return nil, err
	}

	s.logger.Info("Order created",
		"order_id", order.ID,
		"order_code", order.Code,
		"total", order.TotalPrice.String())
	return order, nil
}

// GetOrderHistory returns one page of the user's orders, newest first.
func (s *OrderService) GetOrderHistory(ctx context.Context, userID int64, page, limit int64) ([]*models.Order, models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	orders, total, err := s.orderRepo.ListByUser(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch order history", "user_id", userID, "error", err)
		return nil, models.Pagination{}, err
	}

	totalPages := (total + limit - 1) / limit
	pagination := models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}

	s.logger.Debug("Fetched order history", "user_id", userID, "page", page, "count", len(orders))
	return orders, pagination, nil
}

// GetOrderByID fetches a single order scoped to its owner. A nil userID
// reaches guest orders only; another user's order reads as not found.
func (s *OrderService) GetOrderByID(ctx context.Context, id int64, userID *int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("Order not found or not owned", "order_id", id)
			return nil, fmt.Errorf("%w: id %d", ErrOrderNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

// LookupGuestOrder finds a guest order by display code and the checkout
// email.
func (s *OrderService) LookupGuestOrder(ctx context.Context, code, email string) (*models.Order, error) {
	if code == "" || email == "" {
		return nil, fmt.Errorf("%w: order code and email are required", ErrMissingDetails)
	}

	order, err := s.orderRepo.GetByCodeAndEmail(ctx, code, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.logger.Warn("Guest order lookup failed", "order_code", code)
			return nil, fmt.Errorf("%w: code %s", ErrOrderNotFound, code)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) validateCreateRequest(req CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d", ErrInvalidQuantity, i+1)
		}
		if item.ProductID == 0 && item.ProductsID == "" && item.ProductSlug == "" {
			return fmt.Errorf("%w: item %d has no product reference", ErrProductNotFound, i+1)
		}
	}
	if req.Firstname == "" {
		return fmt.Errorf("%w: firstname", ErrMissingDetails)
	}
	if req.Address == "" {
		return fmt.Errorf("%w: address", ErrMissingDetails)
	}
	if req.Email == "" {
		return fmt.Errorf("%w: email", ErrMissingDetails)
	}
	return nil
}

// resolveProduct tries internal id, then external products_id, then slug.
func (s *OrderService) resolveProduct(ctx context.Context, item CreateOrderItemRequest) (*models.Product, error) {
	if item.ProductID != 0 {
		product, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	if item.ProductsID != "" {
		product, err := s.productRepo.GetByProductsID(ctx, item.ProductsID)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	if item.ProductSlug != "" {
		product, err := s.productRepo.GetBySlug(ctx, item.ProductSlug)
		if err == nil {
			return product, nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: id=%d products_id=%q slug=%q",
		ErrProductNotFound, item.ProductID, item.ProductsID, item.ProductSlug)
}
