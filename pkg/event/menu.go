package event

import "time"

const EventMenuItemAvailabilityChanged = "menu.item.availability_changed"

type MenuItemAvailabilityChangedEvent struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	ItemID     string    `json:"item_id"`
	Available  bool      `json:"available"`
}
