package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront-backend/internal/models"
	"storefront-backend/internal/repositories"
	"storefront-backend/pkg/logger"
)

type CreateProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Stock       int64    `json:"stock"`
	Category    string   `json:"category"`
	Slug        string   `json:"slug"`
	Colors      []string `json:"colors"`
	Sizes       []string `json:"sizes"`
	Images      []string `json:"images"`
}

type ProductServiceInterface interface {
	GetAllProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, ref string) (*models.Product, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, ref string, req CreateProductRequest) (*models.Product, error)
}

type ProductService struct {
	productRepo repositories.ProductRepositoryInterface
	seqRepo     repositories.SequenceRepositoryInterface
	logger      *logger.Logger
}

func NewProductService(productRepo repositories.ProductRepositoryInterface, seqRepo repositories.SequenceRepositoryInterface, log *logger.Logger) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		seqRepo:     seqRepo,
		logger:      log.WithComponent("product_service"),
	}
}

func (s *ProductService) GetAllProducts(ctx context.Context) ([]*models.Product, error) {
	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch products", "error", err)
		return nil, err
	}
	s.logger.Debug("Fetched products", "count", len(products))
	return products, nil
}

// GetProduct accepts a numeric id, a products_id, or a slug.
func (s *ProductService) GetProduct(ctx context.Context, ref string) (*models.Product, error) {
	product, err := s.lookup(ctx, ref)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, ref)
		}
		return nil, err
	}
	return product, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	product, err := s.buildProduct(req)
	if err != nil {
		s.logger.Warn("Create product failed: invalid data", "error", err)
		return nil, err
	}

	id, err := s.seqRepo.Next(ctx, "products")
	if err != nil {
		return nil, err
	}
	product.ID = id
	product.ProductsID = fmt.Sprintf("PRD%05d", id)
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	if err := s.productRepo.Add(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created", "product_id", product.ID, "products_id", product.ProductsID)
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, ref string, req CreateProductRequest) (*models.Product, error) {
	existing, err := s.lookup(ctx, ref)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, ref)
		}
		return nil, err
	}

	product, err := s.buildProduct(req)
	if err != nil {
		s.logger.Warn("Update product failed: invalid data", "product_id", existing.ID, "error", err)
		return nil, err
	}

	product.ID = existing.ID
	product.ProductsID = existing.ProductsID
	if product.Slug == "" {
		product.Slug = existing.Slug
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, existing.ID, product); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, ref)
		}
		return nil, err
	}

	s.logger.Info("Product updated", "product_id", product.ID)
	return product, nil
}

func (s *ProductService) lookup(ctx context.Context, ref string) (*models.Product, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		product, err := s.productRepo.GetByID(ctx, id)
		if err == nil || !errors.Is(err, repositories.ErrNotFound) {
			return product, err
		}
	}

	product, err := s.productRepo.GetByProductsID(ctx, ref)
	if err == nil || !errors.Is(err, repositories.ErrNotFound) {
		return product, err
	}

	return s.productRepo.GetBySlug(ctx, ref)
}

func (s *ProductService) buildProduct(req CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}

	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	if req.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}

	return &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		Category:    req.Category,
		Slug:        req.Slug,
		Colors:      req.Colors,
		Sizes:       req.Sizes,
		Images:      req.Images,
	}, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: price is required", ErrInvalidProduct)
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: price %q is not a number", ErrInvalidProduct, raw)
	}
	if price.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: price cannot be negative", ErrInvalidProduct)
	}
	return price, nil
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, slug)
}
