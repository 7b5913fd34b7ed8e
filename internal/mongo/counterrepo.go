package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterRepo hands out per-restaurant daily order numbers with an atomic
// upsert-and-increment, so concurrent creates never share a number.
type CounterRepo struct {
	collection *mongo.Collection
}

type counterDoc struct {
	Key          string    `bson:"_id"`
	RestaurantID uuid.UUID `bson:"restaurant_id"`
	Day          string    `bson:"day"`
	Seq          int       `bson:"seq"`
}

func NewCounterRepo(db *mongo.Database) *CounterRepo {
	return &CounterRepo{collection: db.Collection(countersCollection)}
}

func counterKey(restaurantID uuid.UUID, day string) string {
	return restaurantID.String() + ":" + day
}

func (r *CounterRepo) Next(ctx context.Context, restaurantID uuid.UUID, day string) (int, error) {
	filter := bson.M{"_id": counterKey(restaurantID, day)}
	update := bson.M{
		"$inc":         bson.M{"seq": 1},
		"$setOnInsert": bson.M{"restaurant_id": restaurantID, "day": day},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDoc
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return 0, fmt.Errorf("cannot increment order counter: %w", err)
	}
	return doc.Seq, nil
}
