package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-backend/internal/models"
	"storefront-backend/pkg/database"
	"storefront-backend/pkg/logger"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// ErrStockConflict is returned when a conditional stock decrement matches
// no document, meaning the remaining stock is below the requested quantity.
var ErrStockConflict = errors.New("stock conflict")

type ProductRepositoryInterface interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	GetByProductsID(ctx context.Context, productsID string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetAll(ctx context.Context) ([]*models.Product, error)
	Add(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, id int64, product *models.Product) error
	DecrementStock(ctx context.Context, id int64, quantity int64) error
}

type ProductRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

func NewProductRepository(log *logger.Logger, db *database.DB) *ProductRepository {
	return &ProductRepository{
		coll:   db.Collection("products"),
		logger: log.WithComponent("product_repository"),
	}
}

// productDoc is the persisted shape. Prices are stored as Decimal128 so
// money never round-trips through binary floats.
type productDoc struct {
	ID          int64                `bson:"_id"`
	ProductsID  string               `bson:"products_id"`
	Slug        string               `bson:"slug"`
	Name        string               `bson:"name"`
	Description string               `bson:"description"`
	Price       primitive.Decimal128 `bson:"price"`
	Stock       int64                `bson:"stock"`
	Category    string               `bson:"category"`
	Colors      []string             `bson:"colors"`
	Sizes       []string             `bson:"sizes"`
	Images      []string             `bson:"images"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func (d *productDoc) toModel() *models.Product {
	return &models.Product{
		ID:          d.ID,
		ProductsID:  d.ProductsID,
		Slug:        d.Slug,
		Name:        d.Name,
		Description: d.Description,
		Price:       fromDecimal128(d.Price),
		Stock:       d.Stock,
		Category:    d.Category,
		Colors:      d.Colors,
		Sizes:       d.Sizes,
		Images:      d.Images,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func productToDoc(p *models.Product) *productDoc {
	return &productDoc{
		ID:          p.ID,
		ProductsID:  p.ProductsID,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		Price:       toDecimal128(p.Price),
		Stock:       p.Stock,
		Category:    p.Category,
		Colors:      p.Colors,
		Sizes:       p.Sizes,
		Images:      p.Images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *ProductRepository) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	var doc productDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return doc.toModel(), nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ProductRepository) GetByProductsID(ctx context.Context, productsID string) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"products_id": productsID})
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *ProductRepository) GetAll(ctx context.Context) ([]*models.Product, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		r.logger.Error("Failed to list products", "error", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*models.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toModel())
	}
	return products, nil
}

func (r *ProductRepository) Add(ctx context.Context, product *models.Product) error {
	if _, err := r.coll.InsertOne(ctx, productToDoc(product)); err != nil {
		r.logger.Error("Failed to insert product", "product_id", product.ID, "error", err)
		return fmt.Errorf("failed to insert product: %w", err)
	}
	r.logger.Info("Added product", "product_id", product.ID, "products_id", product.ProductsID)
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, product *models.Product) error {
	product.ID = id
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, productToDoc(product))
	if err != nil {
		r.logger.Error("Failed to update product", "product_id", id, "error", err)
		return fmt.Errorf("failed to update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	r.logger.Info("Updated product", "product_id", id)
	return nil
}

// DecrementStock performs a conditional decrement: the filter requires
// stock >= quantity, so a concurrent order that drained stock first makes
// this match nothing and the caller's transaction aborts. Stock can never
// go negative through this path.
func (r *ProductRepository) DecrementStock(ctx context.Context, id int64, quantity int64) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "stock": bson.M{"$gte": quantity}},
		bson.M{"$inc": bson.M{"stock": -quantity}},
	)
	if err != nil {
		r.logger.Error("Failed to decrement stock", "product_id", id, "quantity", quantity, "error", err)
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if res.ModifiedCount == 0 {
		r.logger.Warn("Stock decrement matched no rows", "product_id", id, "quantity", quantity)
		return ErrStockConflict
	}
	return nil
}
