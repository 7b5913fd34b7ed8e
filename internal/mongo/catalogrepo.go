package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/appetiteclub/tableside/internal/catalog"
)

type RestaurantRepo struct {
	collection *mongo.Collection
}

func NewRestaurantRepo(db *mongo.Database) *RestaurantRepo {
	return &RestaurantRepo{collection: db.Collection(restaurantsCollection)}
}

func (r *RestaurantRepo) Create(ctx context.Context, rest *catalog.Restaurant) error {
	if rest == nil {
		return fmt.Errorf("restaurant is nil")
	}
	if _, err := r.collection.InsertOne(ctx, rest); err != nil {
		return fmt.Errorf("cannot create restaurant: %w", err)
	}
	return nil
}

func (r *RestaurantRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Restaurant, error) {
	var rest catalog.Restaurant
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rest); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get restaurant: %w", err)
	}
	return &rest, nil
}

type TableRepo struct {
	collection *mongo.Collection
}

func NewTableRepo(db *mongo.Database) *TableRepo {
	return &TableRepo{collection: db.Collection(tablesCollection)}
}

func (r *TableRepo) Create(ctx context.Context, t *catalog.Table) error {
	if t == nil {
		return fmt.Errorf("table is nil")
	}
	if _, err := r.collection.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("cannot create table: %w", err)
	}
	return nil
}

func (r *TableRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Table, error) {
	var t catalog.Table
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get table: %w", err)
	}
	return &t, nil
}

func (r *TableRepo) ListActiveByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]*catalog.Table, error) {
	filter := bson.M{"restaurant_id": restaurantID, "active": true}
	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list tables: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*catalog.Table
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode tables: %w", err)
	}
	return result, nil
}

type MenuItemRepo struct {
	collection *mongo.Collection
}

func NewMenuItemRepo(db *mongo.Database) *MenuItemRepo {
	return &MenuItemRepo{collection: db.Collection(menuItemsCollection)}
}

func (r *MenuItemRepo) Create(ctx context.Context, m *catalog.MenuItem) error {
	if m == nil {
		return fmt.Errorf("menu item is nil")
	}
	if _, err := r.collection.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("cannot create menu item: %w", err)
	}
	return nil
}

func (r *MenuItemRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.MenuItem, error) {
	var m catalog.MenuItem
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get menu item: %w", err)
	}
	return &m, nil
}

// ListByIDs returns the items that exist; missing ids are simply absent.
func (r *MenuItemRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("cannot list menu items: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*catalog.MenuItem
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode menu items: %w", err)
	}
	return result, nil
}

func (r *MenuItemRepo) SetAvailability(ctx context.Context, id uuid.UUID, available bool) error {
	update := bson.M{"$set": bson.M{"available": available, "updated_at": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("cannot update menu item: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("menu item not found")
	}
	return nil
}

type IngredientRepo struct {
	collection *mongo.Collection
}

func NewIngredientRepo(db *mongo.Database) *IngredientRepo {
	return &IngredientRepo{collection: db.Collection(ingredientsCollection)}
}

func (r *IngredientRepo) Create(ctx context.Context, i *catalog.Ingredient) error {
	if i == nil {
		return fmt.Errorf("ingredient is nil")
	}
	if _, err := r.collection.InsertOne(ctx, i); err != nil {
		return fmt.Errorf("cannot create ingredient: %w", err)
	}
	return nil
}

// Adjust changes stock by delta in a single atomic update.
func (r *IngredientRepo) Adjust(ctx context.Context, id uuid.UUID, delta float64) error {
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updated_at": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("cannot adjust ingredient stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("ingredient %s not found", id)
	}
	return nil
}

type StaffRepo struct {
	collection *mongo.Collection
}

func NewStaffRepo(db *mongo.Database) *StaffRepo {
	return &StaffRepo{collection: db.Collection(staffCollection)}
}

func (r *StaffRepo) Create(ctx context.Context, s *catalog.Staff) error {
	if s == nil {
		return fmt.Errorf("staff is nil")
	}
	if _, err := r.collection.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("cannot create staff: %w", err)
	}
	return nil
}

func (r *StaffRepo) Get(ctx context.Context, id uuid.UUID) (*catalog.Staff, error) {
	var s catalog.Staff
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get staff: %w", err)
	}
	return &s, nil
}
