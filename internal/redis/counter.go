package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
)

// counterTTL outlives any restaurant-local day in any timezone.
const counterTTL = 48 * time.Hour

// DailyCounter issues order numbers with INCR. Every increment refreshes the
// expiry so old counters clean themselves up.
type DailyCounter struct {
	rdb *rd.Client
}

func NewDailyCounter(rdb *rd.Client) *DailyCounter {
	return &DailyCounter{rdb: rdb}
}

func (c *DailyCounter) Next(ctx context.Context, restaurantID uuid.UUID, day string) (int, error) {
	key := OrderCounterKey(restaurantID, day)

	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, counterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("cannot increment order counter: %w", err)
	}
	return int(incr.Val()), nil
}
