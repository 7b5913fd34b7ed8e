package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
)

// ResetDB drops the service database - USE WITH CAUTION
func ResetDB(ctx context.Context, aptConfig *apt.Config, logger apt.Logger) error {
	cfg, baseRepo, err := connect(ctx, aptConfig, logger)
	if err != nil {
		return err
	}
	defer baseRepo.Stop(ctx)

	if !cfg.IsDev() {
		return fmt.Errorf("refusing to drop %s outside dev", cfg.MongoName)
	}

	logger.Infof("⚠️  DANGER: This will drop the %s database!", cfg.MongoName)
	logger.Infof("⚠️  This action cannot be undone!")

	if err := baseRepo.Drop(ctx); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}

	logger.Info("Database dropped", "database", cfg.MongoName)
	return nil
}
