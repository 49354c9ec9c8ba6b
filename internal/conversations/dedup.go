package conversations

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "umbler:webhook:event:"

// Deduper remembers event ids for a while so redelivered webhooks are
// acknowledged without being processed again.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduper{rdb: rdb, ttl: ttl}
}

// FirstSeen records eventID and reports whether it was new.
func (d *Deduper) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, dedupKeyPrefix+eventID, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record webhook event: %w", err)
	}
	return ok, nil
}

// Forget drops eventID so a later redelivery is processed.
func (d *Deduper) Forget(ctx context.Context, eventID string) error {
	return d.rdb.Del(ctx, dedupKeyPrefix+eventID).Err()
}
