package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront-backend/pkg/logger"
)

// Config holds MongoDB connection settings
type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// DefaultConfig returns connection defaults suitable for local development
func DefaultConfig() Config {
	return Config{
		URI:            "mongodb://localhost:27017",
		Database:       "storefront",
		ConnectTimeout: 10 * time.Second,
	}
}

// DB wraps the MongoDB client and database handle
type DB struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logger.Logger
}

// NewConnection establishes a MongoDB connection and verifies it with a ping
func NewConnection(config Config, log *logger.Logger) (*DB, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	log.Info("MongoDB connection established", "database", config.Database)

	return &DB{
		client: client,
		db:     client.Database(config.Database),
		logger: log.WithComponent("database"),
	}, nil
}

// Collection returns a handle to the named collection
func (d *DB) Collection(name string) *mongo.Collection {
	return d.db.Collection(name)
}

// WithTransaction runs fn inside a MongoDB session transaction. The
// transaction commits when fn returns nil and aborts otherwise.
func (d *DB) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := d.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, fn)
}

// RunTransaction runs fn inside a session transaction, exposing the
// session context as a plain context.Context so callers stay decoupled
// from the driver.
func (d *DB) RunTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	_, err := d.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// HealthCheck pings the primary to verify connectivity
func (d *DB) HealthCheck(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (d *DB) Close(ctx context.Context) error {
	d.logger.Info("Closing MongoDB connection")
	return d.client.Disconnect(ctx)
}
