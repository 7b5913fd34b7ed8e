package event

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	restaurantRoomPrefix = "restaurant:"
	orderRoomPrefix      = "order:"

	// RoomsTopic carries room-addressed events between service instances.
	RoomsTopic = "realtime.rooms"
)

// RestaurantRoom is the staff room for everything happening in a restaurant.
func RestaurantRoom(restaurantID uuid.UUID) string {
	return restaurantRoomPrefix + restaurantID.String()
}

// OrderRoom is the customer tracking room for a single order.
func OrderRoom(orderID uuid.UUID) string {
	return orderRoomPrefix + orderID.String()
}

// RoomKind identifies which family a room name belongs to.
type RoomKind int

const (
	RoomUnknown RoomKind = iota
	RoomRestaurant
	RoomOrder
)

// ParseRoom splits a room name into its kind and id.
func ParseRoom(room string) (RoomKind, uuid.UUID, error) {
	var kind RoomKind
	var raw string
	switch {
	case strings.HasPrefix(room, restaurantRoomPrefix):
		kind, raw = RoomRestaurant, strings.TrimPrefix(room, restaurantRoomPrefix)
	case strings.HasPrefix(room, orderRoomPrefix):
		kind, raw = RoomOrder, strings.TrimPrefix(room, orderRoomPrefix)
	default:
		return RoomUnknown, uuid.Nil, fmt.Errorf("unknown room %q", room)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return RoomUnknown, uuid.Nil, fmt.Errorf("invalid room id %q: %w", raw, err)
	}
	return kind, id, nil
}

// Envelope wraps an event with the room it is addressed to.
// It is both the NATS fan-out payload and the frame sent to sockets.
type Envelope struct {
	Room string          `json:"room"`
	Data json.RawMessage `json:"data"`
}
