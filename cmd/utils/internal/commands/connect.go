package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/tableside/internal/config"
	"github.com/appetiteclub/tableside/internal/mongo"
)

// connect loads the shared configuration and opens the service database.
// Callers stop the returned repo when done.
func connect(ctx context.Context, aptConfig *apt.Config, logger apt.Logger) (config.AppConfig, *mongo.BaseRepo, error) {
	cfg, err := config.Load(aptConfig)
	if err != nil {
		return config.AppConfig{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseRepo := mongo.NewBaseRepo(cfg.MongoURL, cfg.MongoName, logger)
	if err := baseRepo.Start(ctx); err != nil {
		return config.AppConfig{}, nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	logger.Info("Connected to MongoDB", "database", cfg.MongoName)
	return cfg, baseRepo, nil
}
