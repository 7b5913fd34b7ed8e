package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/pkg/enums/orderstatus"
)

var (
	// ErrNotFound also covers orders that belong to another restaurant.
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyAssigned   = errors.New("order is already assigned to another waiter")
	ErrNotOwner          = errors.New("only the assigned waiter can deliver this order")
	ErrItemsUnavailable  = errors.New("menu items unavailable")
	ErrInvalidOrder      = errors.New("invalid order")
	ErrStorage           = errors.New("order storage failure")
)

type TransitionError struct {
	From orderstatus.Status
	To   orderstatus.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From.Code(), e.To.Code())
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

type ItemsUnavailableError struct {
	MenuItemIDs []uuid.UUID
}

func (e *ItemsUnavailableError) Error() string {
	ids := make([]string, 0, len(e.MenuItemIDs))
	for _, id := range e.MenuItemIDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("menu items unavailable: %s", strings.Join(ids, ", "))
}

func (e *ItemsUnavailableError) Is(target error) bool {
	return target == ErrItemsUnavailable
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func invalidOrder(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOrder, fmt.Sprintf(format, args...))
}
