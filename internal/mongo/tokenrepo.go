package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/appetiteclub/tableside/internal/session"
)

// TokenRepo stores QR tokens keyed by the token string.
type TokenRepo struct {
	collection *mongo.Collection
}

func NewTokenRepo(db *mongo.Database) *TokenRepo {
	return &TokenRepo{collection: db.Collection(tokensCollection)}
}

func (r *TokenRepo) Insert(ctx context.Context, t *session.QRToken) error {
	if t == nil {
		return fmt.Errorf("token is nil")
	}
	if _, err := r.collection.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("cannot insert token: %w", err)
	}
	return nil
}

func (r *TokenRepo) Get(ctx context.Context, token string) (*session.QRToken, error) {
	var t session.QRToken
	if err := r.collection.FindOne(ctx, bson.M{"_id": token}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get token: %w", err)
	}
	return &t, nil
}

func (r *TokenRepo) DeleteByTables(ctx context.Context, tableIDs []uuid.UUID) (int, error) {
	if len(tableIDs) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"table_id": bson.M{"$in": tableIDs}})
	if err != nil {
		return 0, fmt.Errorf("cannot delete tokens: %w", err)
	}
	return int(result.DeletedCount), nil
}

// DeleteExpired removes tokens whose expiry is at or before now.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, fmt.Errorf("cannot delete expired tokens: %w", err)
	}
	return int(result.DeletedCount), nil
}
