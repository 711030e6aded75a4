package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedup tracks processed broker message IDs per consumer, so redelivered
// messages are recognized across service restarts.  The check and the
// record are separate steps: consumers call Seen before doing work and
// Mark only after the work succeeded, so a crash mid-handling leaves the
// ID unrecorded and the redelivery runs the work again.  Entries expire
// after the retention window; consumers stay idempotent on their own,
// this just avoids re-running bulk work.
type Dedup struct {
	rdb       *redis.Client
	retention time.Duration
}

// NewDedup returns a Dedup with the given retention window for message
// IDs.  rdb may be nil; Seen then always reports false and Mark is a
// no-op.
func NewDedup(rdb *redis.Client, retention time.Duration) *Dedup {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Dedup{rdb: rdb, retention: retention}
}

func dedupKey(consumer, messageID string) string {
	return fmt.Sprintf("dedup:%s:%s", consumer, messageID)
}

// Seen reports whether messageID has been marked handled for the named
// consumer.
func (d *Dedup) Seen(ctx context.Context, consumer, messageID string) (bool, error) {
	if d == nil || d.rdb == nil {
		return false, nil
	}
	n, err := d.rdb.Exists(ctx, dedupKey(consumer, messageID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Mark records messageID as handled for the named consumer.
func (d *Dedup) Mark(ctx context.Context, consumer, messageID string) error {
	if d == nil || d.rdb == nil {
		return nil
	}
	return d.rdb.Set(ctx, dedupKey(consumer, messageID), 1, d.retention).Err()
}
