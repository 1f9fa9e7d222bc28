package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-backend/internal/models"
	"storefront-backend/pkg/database"
	"storefront-backend/pkg/logger"
)

type OrderRepositoryInterface interface {
	Add(ctx context.Context, order *models.Order) error
	GetByIDForUser(ctx context.Context, id int64, userID *int64) (*models.Order, error)
	GetByCodeAndEmail(ctx context.Context, code, email string) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64, page, limit int64) ([]*models.Order, int64, error)
}

type OrderRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

func NewOrderRepository(log *logger.Logger, db *database.DB) *OrderRepository {
	return &OrderRepository{
		coll:   db.Collection("orders"),
		logger: log.WithComponent("order_repository"),
	}
}

type orderItemDoc struct {
	ProductID  int64                `bson:"product_id"`
	ProductsID string               `bson:"products_id"`
	Name       string               `bson:"name"`
	Quantity   int64                `bson:"quantity"`
	UnitPrice  primitive.Decimal128 `bson:"unit_price"`
	Color      string               `bson:"color,omitempty"`
	Size       string               `bson:"size,omitempty"`
}

type orderDoc struct {
	ID            int64                `bson:"_id"`
	Code          string               `bson:"order_code"`
	UserID        *int64               `bson:"user_id"`
	CustomerName  string               `bson:"customer_name"`
	Address       string               `bson:"address"`
	Phone         string               `bson:"phonenumber"`
	Email         string               `bson:"email"`
	ProductsPrice primitive.Decimal128 `bson:"products_price"`
	TotalPrice    primitive.Decimal128 `bson:"total_price"`
	PaymentMethod string               `bson:"payment_method"`
	PaymentStatus string               `bson:"payment_status"`
	Status        string               `bson:"status"`
	Items         []orderItemDoc       `bson:"products_items"`
	ItemsSummary  string               `bson:"products_name"`
	CreatedAt     time.Time            `bson:"created_at"`
}

func (d *orderDoc) toModel() *models.Order {
	items := make([]models.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, models.OrderItem{
			ProductID:  it.ProductID,
			ProductsID: it.ProductsID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  fromDecimal128(it.UnitPrice),
			Color:      it.Color,
			Size:       it.Size,
		})
	}
	return &models.Order{
		ID:            d.ID,
		Code:          d.Code,
		UserID:        d.UserID,
		CustomerName:  d.CustomerName,
		Address:       d.Address,
		Phone:         d.Phone,
		Email:         d.Email,
		ProductsPrice: fromDecimal128(d.ProductsPrice),
		TotalPrice:    fromDecimal128(d.TotalPrice),
		PaymentMethod: d.PaymentMethod,
		PaymentStatus: d.PaymentStatus,
		Status:        d.Status,
		Items:         items,
		ItemsSummary:  d.ItemsSummary,
		CreatedAt:     d.CreatedAt,
	}
}

func orderToDoc(o *models.Order) *orderDoc {
	items := make([]orderItemDoc, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemDoc{
			ProductID:  it.ProductID,
			ProductsID: it.ProductsID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			UnitPrice:  toDecimal128(it.UnitPrice),
			Color:      it.Color,
			Size:       it.Size,
		})
	}
	return &orderDoc{
		ID:            o.ID,
		Code:          o.Code,
		UserID:        o.UserID,
		CustomerName:  o.CustomerName,
		Address:       o.Address,
		Phone:         o.Phone,
		Email:         o.Email,
		ProductsPrice: toDecimal128(o.ProductsPrice),
		TotalPrice:    toDecimal128(o.TotalPrice),
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		Status:        o.Status,
		Items:         items,
		ItemsSummary:  o.ItemsSummary,
		CreatedAt:     o.CreatedAt,
	}
}

func (r *OrderRepository) Add(ctx context.Context, order *models.Order) error {
	if _, err := r.coll.InsertOne(ctx, orderToDoc(order)); err != nil {
		r.logger.Error("Failed to insert order", "order_id", order.ID, "error", err)
		return fmt.Errorf("failed to insert order: %w", err)
	}
	r.logger.Info("Added order", "order_id", order.ID, "order_code", order.Code)
	return nil
}

// GetByIDForUser fetches an order scoped to its owner. A nil userID
// matches guest orders only, never another user's order.
func (r *OrderRepository) GetByIDForUser(ctx context.Context, id int64, userID *int64) (*models.Order, error) {
	filter := bson.M{"_id": id}
	if userID != nil {
		filter["user_id"] = *userID
	} else {
		filter["user_id"] = nil
	}

	var doc orderDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return doc.toModel(), nil
}

// GetByCodeAndEmail is the guest lookup path: order code plus the email
// captured at checkout stand in for ownership.
func (r *OrderRepository) GetByCodeAndEmail(ctx context.Context, code, email string) (*models.Order, error) {
	var doc orderDoc
	err := r.coll.FindOne(ctx, bson.M{"order_code": code, "email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return doc.toModel(), nil
}

// ListByUser returns one page of a user's orders, newest first, plus the
// total count for pagination metadata.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, page, limit int64) ([]*models.Order, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count orders", "user_id", userID, "error", err)
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list orders", "user_id", userID, "error", err)
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	var docs []orderDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode orders: %w", err)
	}

	orders := make([]*models.Order, 0, len(docs))
	for i := range docs {
		orders = append(orders, docs[i].toModel())
	}

	r.logger.Debug("Listed orders", "user_id", userID, "page", page, "count", len(orders), "total", total)
	return orders, total, nil
}
