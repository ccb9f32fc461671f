package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle lets one caller per key through every window.
type Throttle struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
}

func NewThrottle(rdb *redis.Client, prefix string, window time.Duration) *Throttle {
	return &Throttle{rdb: rdb, prefix: prefix, window: window}
}

// Allow reports true for the first call per key inside the window.
func (t *Throttle) Allow(ctx context.Context, key string) (bool, error) {
	return t.rdb.SetNX(ctx, t.prefix+key, "1", t.window).Result()
}
