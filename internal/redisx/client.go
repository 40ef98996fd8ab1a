package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return r
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Dedup tracks already-seen event ids under a printf key template.
// Satisfies the webhook gateway's Deduper.
type Dedup struct {
	R        *redis.Client
	Template string
	TTL      time.Duration
}

func (d Dedup) Seen(ctx context.Context, id string) (bool, error) {
	return Exists(ctx, d.R, key(d.Template, id))
}

func (d Dedup) Mark(ctx context.Context, id string) error {
	return d.R.Set(ctx, key(d.Template, id), "1", d.TTL).Err()
}
