package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a registered customer account.
type User struct {
	ID       int64  `json:"id"`
	Code     string `json:"user_code"` // UID00001
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password,omitempty"`
}

// Product is a catalog entry. Stock is decremented only at order
// placement and must never go negative.
type Product struct {
	ID          int64           `json:"id"`
	ProductsID  string          `json:"products_id"` // PRD00001, external-facing
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Category    string          `json:"category"`
	Colors      []string        `json:"colors"`
	Sizes       []string        `json:"sizes"`
	Images      []string        `json:"images"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// OrderItem is the snapshot of one resolved line item taken at order
// creation. It stays fixed even if the product later changes.
type OrderItem struct {
	ProductID  int64           `json:"product_id"`
	ProductsID string          `json:"products_id"`
	Name       string          `json:"name"`
	Quantity   int64           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Color      string          `json:"color,omitempty"`
	Size       string          `json:"size,omitempty"`
}

// Order is a persisted order header with denormalized customer info and
// the immutable line-item snapshot. UserID is nil for guest orders.
type Order struct {
	ID            int64           `json:"id"`
	Code          string          `json:"order_code"` // ORD00001
	UserID        *int64          `json:"user_id"`
	CustomerName  string          `json:"customer_name"`
	Address       string          `json:"address"`
	Phone         string          `json:"phonenumber"`
	Email         string          `json:"email"`
	ProductsPrice decimal.Decimal `json:"products_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	Status        string          `json:"status"`
	Items         []OrderItem     `json:"products_items"`
	ItemsSummary  string          `json:"products_name"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}
