package seeding

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/appetiteclub/tableside/internal/catalog"
	"github.com/appetiteclub/tableside/pkg/enums/staffrole"
)

const demoSeedApplication = "tableside_demo"

// Fixed ids so dev tooling can mint tokens for the demo restaurant.
var (
	DemoRestaurantID = uuid.MustParse("7a1c0d2e-5b3f-4c8a-9e61-000000000001")
	DemoWaiterID     = uuid.MustParse("7a1c0d2e-5b3f-4c8a-9e61-000000000101")
	DemoWaiter2ID    = uuid.MustParse("7a1c0d2e-5b3f-4c8a-9e61-000000000102")
	DemoKitchenID    = uuid.MustParse("7a1c0d2e-5b3f-4c8a-9e61-000000000201")
	DemoManagerID    = uuid.MustParse("7a1c0d2e-5b3f-4c8a-9e61-000000000301")
)

type Repos struct {
	Restaurants catalog.RestaurantRepo
	Tables      catalog.TableRepo
	MenuItems   catalog.MenuItemRepo
	Ingredients catalog.IngredientRepo
	Staff       catalog.StaffRepo
}

// ApplyDemoSeeds creates a demo restaurant with tables, staff and a small menu.
func ApplyDemoSeeds(ctx context.Context, repos Repos, db *mongo.Database, logger apt.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}

	tracker := seed.NewMongoTracker(db)

	logger.Info("Applying demo seeds")
	if err := seed.Apply(ctx, tracker, DemoSeeds(repos, logger), demoSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo seeds applied successfully")
	return nil
}

func DemoSeeds(repos Repos, logger apt.Logger) []seed.Seed {
	return []seed.Seed{
		{
			ID:          "2026-10-01_demo_restaurant_v1",
			Description: "Create the demo restaurant with its tables and staff",
			Run: func(ctx context.Context) error {
				return seedRestaurant(ctx, repos, logger)
			},
		},
		{
			ID:          "2026-10-01_demo_menu_v1",
			Description: "Create demo ingredients and menu items with recipes",
			Run: func(ctx context.Context) error {
				return seedMenu(ctx, repos, logger)
			},
		},
	}
}

func seedRestaurant(ctx context.Context, repos Repos, logger apt.Logger) error {
	r := catalog.NewRestaurant(map[string]string{"en": "Demo Bistro", "es": "Bistró Demo"}, "Europe/Madrid")
	r.ID = DemoRestaurantID
	r.BeforeCreate()
	if err := repos.Restaurants.Create(ctx, r); err != nil {
		return fmt.Errorf("create demo restaurant: %w", err)
	}

	names := map[int]string{1: "Window", 2: "Window", 5: "Patio", 6: "Patio"}
	for n := 1; n <= 8; n++ {
		t := catalog.NewTable(DemoRestaurantID, n)
		t.Name = names[n]
		if n == 8 {
			// out of service
			t.Active = false
		}
		t.BeforeCreate()
		if err := repos.Tables.Create(ctx, t); err != nil {
			return fmt.Errorf("create demo table %d: %w", n, err)
		}
	}

	staff := []struct {
		id   uuid.UUID
		name string
		role staffrole.Role
	}{
		{DemoWaiterID, "Lucía", staffrole.Roles.Waiter},
		{DemoWaiter2ID, "Marco", staffrole.Roles.Waiter},
		{DemoKitchenID, "Chef Ana", staffrole.Roles.Kitchen},
		{DemoManagerID, "Pablo", staffrole.Roles.Manager},
	}
	for _, s := range staff {
		member := catalog.NewStaff(DemoRestaurantID, s.name, s.role)
		member.ID = s.id
		member.BeforeCreate()
		if err := repos.Staff.Create(ctx, member); err != nil {
			return fmt.Errorf("create demo staff %s: %w", s.name, err)
		}
	}

	logger.Info("Demo restaurant created", "restaurant_id", DemoRestaurantID.String(), "tables", 8, "staff", len(staff))
	return nil
}

type demoIngredient struct {
	key   string
	name  string
	unit  string
	stock float64
}

type demoDish struct {
	en, es    string
	price     string
	available bool
	recipe    map[string]float64
}

func seedMenu(ctx context.Context, repos Repos, logger apt.Logger) error {
	ingredients := []demoIngredient{
		{"flour", "Flour", "kg", 25},
		{"tomato", "Tomato sauce", "l", 10},
		{"mozzarella", "Mozzarella", "kg", 8},
		{"basil", "Basil", "bunch", 20},
		{"coffee", "Coffee beans", "kg", 5},
		{"lemon", "Lemon", "unit", 60},
	}

	ids := make(map[string]uuid.UUID, len(ingredients))
	for _, in := range ingredients {
		ing := catalog.NewIngredient(DemoRestaurantID, in.name, in.unit, in.stock)
		if err := repos.Ingredients.Create(ctx, ing); err != nil {
			return fmt.Errorf("create demo ingredient %s: %w", in.name, err)
		}
		ids[in.key] = ing.ID
	}

	dishes := []demoDish{
		{en: "Margherita", es: "Margarita", price: "9.50", available: true,
			recipe: map[string]float64{"flour": 0.25, "tomato": 0.1, "mozzarella": 0.125, "basil": 0.2}},
		{en: "Marinara", es: "Marinara", price: "8.00", available: true,
			recipe: map[string]float64{"flour": 0.25, "tomato": 0.15}},
		{en: "Focaccia", es: "Focaccia", price: "4.50", available: true,
			recipe: map[string]float64{"flour": 0.2}},
		{en: "Espresso", es: "Café solo", price: "1.80", available: true,
			recipe: map[string]float64{"coffee": 0.009}},
		{en: "Lemonade", es: "Limonada", price: "3.20", available: true,
			recipe: map[string]float64{"lemon": 2}},
		{en: "Tiramisu", es: "Tiramisú", price: "6.00", available: false},
	}

	for _, d := range dishes {
		item := catalog.NewMenuItem(DemoRestaurantID, d.en, decimal.RequireFromString(d.price))
		item.Names["es"] = d.es
		item.Available = d.available
		for key, qty := range d.recipe {
			item.Recipe = append(item.Recipe, catalog.RecipeLine{IngredientID: ids[key], Quantity: qty})
		}
		item.BeforeCreate()
		if err := repos.MenuItems.Create(ctx, item); err != nil {
			return fmt.Errorf("create demo menu item %s: %w", d.en, err)
		}
	}

	logger.Info("Demo menu created", "ingredients", len(ingredients), "items", len(dishes))
	return nil
}

// DemoSeedingFunc returns a lifecycle OnStart function that seeds in the background.
func DemoSeedingFunc(seedCtx context.Context, repos Repos, db *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, repos, db, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Demo seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Demo seeding completed successfully")
			}
		}()
		return nil
	}
}
