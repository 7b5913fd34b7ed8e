package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/catalog"
)

var ErrQueueFull = errors.New("stock deduction queue is full")

// PartialDeductionError reports a deduction where some ingredients were
// already adjusted. Applying the same deduction again would double count them.
type PartialDeductionError struct {
	Applied int
	Failed  int
	Err     error
}

func (e *PartialDeductionError) Error() string {
	return fmt.Sprintf("stock partially deducted (%d applied, %d failed): %v", e.Applied, e.Failed, e.Err)
}

func (e *PartialDeductionError) Unwrap() error {
	return e.Err
}

// Deduction asks for the ingredients of a delivered order to be consumed.
type Deduction struct {
	OrderID      uuid.UUID
	RestaurantID uuid.UUID
	Lines        []Line
}

type Line struct {
	MenuItemID uuid.UUID
	Quantity   int
}

type MenuItemReader interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.MenuItem, error)
}

type IngredientAdjuster interface {
	Adjust(ctx context.Context, id uuid.UUID, delta float64) error
}

// Applier consumes a deduction synchronously.
type Applier interface {
	Apply(ctx context.Context, d Deduction) error
}

type Deductor struct {
	menuItems   MenuItemReader
	ingredients IngredientAdjuster
	logger      apt.Logger
}

func NewDeductor(menuItems MenuItemReader, ingredients IngredientAdjuster, logger apt.Logger) *Deductor {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Deductor{menuItems: menuItems, ingredients: ingredients, logger: logger}
}

// Apply decrements every ingredient used by the order's recipes. Items that no
// longer exist are skipped. Each ingredient is adjusted once with the summed amount.
// When some adjustments succeed and others fail the error is a
// *PartialDeductionError and the deduction must not be retried.
func (d *Deductor) Apply(ctx context.Context, ded Deduction) error {
	ids := make([]uuid.UUID, 0, len(ded.Lines))
	for _, l := range ded.Lines {
		ids = append(ids, l.MenuItemID)
	}

	items, err := d.menuItems.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("cannot load menu items: %w", err)
	}
	byID := make(map[uuid.UUID]*catalog.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	usage := make(map[uuid.UUID]float64)
	var order []uuid.UUID
	for _, l := range ded.Lines {
		item, ok := byID[l.MenuItemID]
		if !ok {
			d.log().Info("menu item gone, skipping stock deduction", "order_id", ded.OrderID.String(), "menu_item_id", l.MenuItemID.String())
			continue
		}
		for _, r := range item.Recipe {
			if _, seen := usage[r.IngredientID]; !seen {
				order = append(order, r.IngredientID)
			}
			usage[r.IngredientID] += r.Quantity * float64(l.Quantity)
		}
	}

	var errs []error
	applied := 0
	for _, ingredientID := range order {
		if err := d.ingredients.Adjust(ctx, ingredientID, -usage[ingredientID]); err != nil {
			errs = append(errs, fmt.Errorf("ingredient %s: %w", ingredientID, err))
			continue
		}
		applied++
	}
	if len(errs) > 0 {
		if applied > 0 {
			return &PartialDeductionError{Applied: applied, Failed: len(errs), Err: errors.Join(errs...)}
		}
		return errors.Join(errs...)
	}

	d.log().Debug("stock deducted", "order_id", ded.OrderID.String(), "ingredients", len(order))
	return nil
}

func (d *Deductor) log() apt.Logger {
	return d.logger.With("component", "stock.Deductor")
}
