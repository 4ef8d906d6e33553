package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedupe suppresses duplicate sends of the same logical notification, e.g.
// when an admin retries an idempotent inventory call. Backed by Redis SETNX;
// a nil Dedupe (no Redis configured) lets everything through.
type Dedupe struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDedupe(client *redis.Client, ttl time.Duration) *Dedupe {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Dedupe{client: client, ttl: ttl}
}

// Acquire returns true when the key was not seen within the TTL window.
// On Redis errors it fails open: better a duplicate text than a lost one.
func (d *Dedupe) Acquire(ctx context.Context, key string) bool {
	if d == nil || d.client == nil {
		return true
	}
	ok, err := d.client.SetNX(ctx, "notify:"+key, 1, d.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}
