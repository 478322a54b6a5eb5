package telegram

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const defaultEventRate = "5-S"

// Throttle rate-limits inbound events per chat using ulule/limiter backed
// by Redis, so the limit holds across bot restarts and replicas.
type Throttle struct {
	instance *limiter.Limiter
}

// NewThrottle builds a throttle from a formatted rate such as "5-S".
func NewThrottle(redisClient *redis.Client, rateStr string) (*Throttle, error) {
	if rateStr == "" {
		rateStr = defaultEventRate
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, err
	}
	store, err := redisstore.NewStore(redisClient)
	if err != nil {
		return nil, err
	}
	return &Throttle{instance: limiter.New(store, rate)}, nil
}

// Allow reports whether the chat is within its rate window.
func (t *Throttle) Allow(ctx context.Context, ownerID int64) (bool, error) {
	lctx, err := t.instance.Get(ctx, strconv.FormatInt(ownerID, 10))
	if err != nil {
		return false, err
	}
	return !lctx.Reached, nil
}
