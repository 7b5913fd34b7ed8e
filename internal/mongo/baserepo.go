package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	restaurantsCollection = "restaurants"
	tablesCollection      = "tables"
	menuItemsCollection   = "menu_items"
	ingredientsCollection = "ingredients"
	staffCollection       = "staff"
	ordersCollection      = "orders"
	tokensCollection      = "qr_tokens"
	countersCollection    = "order_counters"
)

type BaseRepo struct {
	url    string
	name   string
	client *mongo.Client
	db     *mongo.Database
	logger apt.Logger
}

func NewBaseRepo(url, name string, logger apt.Logger) *BaseRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if url == "" {
		url = "mongodb://localhost:27017"
	}
	if name == "" {
		name = "tableside"
	}
	return &BaseRepo{
		url:    url,
		name:   name,
		logger: logger,
	}
}

func (r *BaseRepo) Start(ctx context.Context) error {
	clientOptions := options.Client().ApplyURI(r.url).
		SetRegistry(Registry()).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(r.name)

	if err := r.ensureIndexes(ctx); err != nil {
		return err
	}

	r.logger.Infof("Connected to MongoDB: %s, database: %s", r.url, r.name)
	return nil
}

func (r *BaseRepo) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		tablesCollection: {
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "number", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		menuItemsCollection: {
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}}},
		},
		ordersCollection: {
			{Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		tokensCollection: {
			{Keys: bson.D{{Key: "table_id", Value: 1}}},
			// TTL monitor
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}

	for coll, models := range indexes {
		if _, err := r.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("cannot create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func (r *BaseRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (r *BaseRepo) GetDatabase() *mongo.Database {
	return r.db
}

// Drop removes the whole database. Used by the dev reset command.
func (r *BaseRepo) Drop(ctx context.Context) error {
	if r.db == nil {
		return fmt.Errorf("database not started")
	}
	if err := r.db.Drop(ctx); err != nil {
		return fmt.Errorf("cannot drop database %s: %w", r.name, err)
	}
	r.logger.Info("Dropped database", "database", r.name)
	return nil
}
