// Package cache holds the Redis-backed caches of the ticket service: the
// per-event roster cache and the consumer message-id dedup set.  Both
// degrade gracefully to direct reads / no dedup when Redis is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// RosterCache is a read-through cache of per-event check-in/out rosters,
// keyed "event:{id}:checkInOut".  Staleness is bounded by the TTL and by
// explicit invalidation from ticket scans and the cancellation cascade.
type RosterCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRosterCache returns a RosterCache with the given TTL.  rdb may be nil
// when Redis could not be reached at startup; every lookup then falls
// through to the loader.
func NewRosterCache(rdb *redis.Client, ttl time.Duration) *RosterCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RosterCache{rdb: rdb, ttl: ttl}
}

func rosterKey(eventID uint64) string {
	return fmt.Sprintf("event:%d:checkInOut", eventID)
}

// GetOrLoad returns the cached roster for an event, computing and caching
// it through load on a miss.  Cache errors are logged and treated as
// misses; a failing Redis never fails a roster read.
func (c *RosterCache) GetOrLoad(ctx context.Context, eventID uint64, load func(context.Context) ([]model.RosterEntry, error)) ([]model.RosterEntry, error) {
	if c == nil || c.rdb == nil {
		return load(ctx)
	}
	key := rosterKey(eventID)
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var entries []model.RosterEntry
		if err := json.Unmarshal(raw, &entries); err == nil {
			return entries, nil
		}
		// Unreadable payload: drop it and recompute.
		_ = c.rdb.Del(ctx, key).Err()
	}
	entries, err := load(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return entries, nil
	}
	if err := c.rdb.SetEx(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("roster-cache: store %s failed: %v", key, err)
	}
	return entries, nil
}

// Invalidate drops the cached roster for an event.  Called after scan
// transitions and after the cancellation cascade rewrites participants.
func (c *RosterCache) Invalidate(ctx context.Context, eventID uint64) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, rosterKey(eventID)).Err(); err != nil {
		log.Printf("roster-cache: invalidate event %d failed: %v", eventID, err)
	}
}
