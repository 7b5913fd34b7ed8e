package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/config"
	"github.com/appetiteclub/tableside/internal/mongo"
	"github.com/appetiteclub/tableside/internal/session"
)

func newManager(cfg config.AppConfig, baseRepo *mongo.BaseRepo, logger apt.Logger) (*session.Manager, error) {
	policy, err := session.ParsePolicy(cfg.SessionPolicy)
	if err != nil {
		return nil, err
	}

	db := baseRepo.GetDatabase()
	return session.NewManager(
		mongo.NewTokenRepo(db),
		mongo.NewTableRepo(db),
		mongo.NewRestaurantRepo(db),
		session.Options{TTL: cfg.SessionTTL, Policy: policy},
		logger,
	), nil
}

// SweepSessions deletes every expired QR session token.
func SweepSessions(ctx context.Context, aptConfig *apt.Config, logger apt.Logger) error {
	cfg, baseRepo, err := connect(ctx, aptConfig, logger)
	if err != nil {
		return err
	}
	defer baseRepo.Stop(ctx)

	manager, err := newManager(cfg, baseRepo, logger)
	if err != nil {
		return err
	}

	n, err := manager.SweepExpired(ctx)
	if err != nil {
		return err
	}
	logger.Info("Expired sessions removed", "count", n)
	return nil
}

// RotateSessions reissues the QR tokens of every active table in a restaurant.
func RotateSessions(ctx context.Context, aptConfig *apt.Config, logger apt.Logger, restaurantID string) error {
	id, err := uuid.Parse(restaurantID)
	if err != nil {
		return fmt.Errorf("invalid restaurant id %q: %w", restaurantID, err)
	}

	cfg, baseRepo, err := connect(ctx, aptConfig, logger)
	if err != nil {
		return err
	}
	defer baseRepo.Stop(ctx)

	manager, err := newManager(cfg, baseRepo, logger)
	if err != nil {
		return err
	}

	res, err := manager.RotateAllForRestaurant(ctx, id)
	if err != nil {
		return err
	}

	logger.Info("Sessions rotated", "tables", res.Tables, "issued", res.Issued, "failed", len(res.Failed))
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d tables could not be reissued", len(res.Failed))
	}
	return nil
}
