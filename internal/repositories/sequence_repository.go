package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-backend/pkg/database"
	"storefront-backend/pkg/logger"
)

// SequenceRepositoryInterface hands out monotonically increasing ids per
// entity name, backing the ORD00001 / UID00001 style display codes.
type SequenceRepositoryInterface interface {
	Next(ctx context.Context, name string) (int64, error)
}

type SequenceRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

func NewSequenceRepository(log *logger.Logger, db *database.DB) *SequenceRepository {
	return &SequenceRepository{
		coll:   db.Collection("sequences"),
		logger: log.WithComponent("sequence_repository"),
	}
}

// Next atomically increments and returns the counter for name. The
// upsert makes the first call for a new entity return 1.
func (r *SequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}

	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		r.logger.Error("Failed to advance sequence", "name", name, "error", err)
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}

	return doc.Seq, nil
}
