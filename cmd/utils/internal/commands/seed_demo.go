package commands

import (
	"context"

	"github.com/appetiteclub/apt"

	"github.com/appetiteclub/tableside/internal/mongo"
	"github.com/appetiteclub/tableside/internal/seeding"
)

// SeedDemo applies the demo restaurant seeds. Already applied seeds are skipped.
func SeedDemo(ctx context.Context, aptConfig *apt.Config, logger apt.Logger) error {
	logger.Info("Starting demo seeding process...")

	_, baseRepo, err := connect(ctx, aptConfig, logger)
	if err != nil {
		return err
	}
	defer baseRepo.Stop(ctx)

	db := baseRepo.GetDatabase()
	repos := seeding.Repos{
		Restaurants: mongo.NewRestaurantRepo(db),
		Tables:      mongo.NewTableRepo(db),
		MenuItems:   mongo.NewMenuItemRepo(db),
		Ingredients: mongo.NewIngredientRepo(db),
		Staff:       mongo.NewStaffRepo(db),
	}

	if err := seeding.ApplyDemoSeeds(ctx, repos, db, logger); err != nil {
		return err
	}

	logger.Info("Demo restaurant ready", "restaurant_id", seeding.DemoRestaurantID.String())
	return nil
}
