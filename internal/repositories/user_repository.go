package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-backend/internal/models"
	"storefront-backend/pkg/database"
	"storefront-backend/pkg/logger"
)

type UserRepositoryInterface interface {
	Add(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type UserRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

func NewUserRepository(log *logger.Logger, db *database.DB) *UserRepository {
	return &UserRepository{
		coll:   db.Collection("users"),
		logger: log.WithComponent("user_repository"),
	}
}

type userDoc struct {
	ID       int64  `bson:"_id"`
	Code     string `bson:"user_code"`
	Name     string `bson:"name"`
	Email    string `bson:"email"`
	Phone    string `bson:"phone"`
	Password string `bson:"password"`
}

func (d *userDoc) toModel() *models.User {
	return &models.User{
		ID:       d.ID,
		Code:     d.Code,
		Name:     d.Name,
		Email:    d.Email,
		Phone:    d.Phone,
		Password: d.Password,
	}
}

func (r *UserRepository) Add(ctx context.Context, user *models.User) error {
	doc := userDoc{
		ID:       user.ID,
		Code:     user.Code,
		Name:     user.Name,
		Email:    user.Email,
		Phone:    user.Phone,
		Password: user.Password,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert user", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to insert user: %w", err)
	}
	r.logger.Info("Added user", "user_id", user.ID, "user_code", user.Code)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return doc.toModel(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return doc.toModel(), nil
}
