package redis

import (
	"fmt"

	"github.com/google/uuid"
)

// OrderCounterKey holds the order sequence for one restaurant and local day.
func OrderCounterKey(restaurantID uuid.UUID, day string) string {
	return fmt.Sprintf("tableside:order:counter:%s:%s", restaurantID, day)
}

// RateLimitKey holds the sliding window of one client on one route group.
func RateLimitKey(scope, client string) string {
	return fmt.Sprintf("tableside:ratelimit:%s:%s", scope, client)
}
