package config

import (
	"strconv"
	"time"
)

// RosterCacheConfig defines settings for the per-event roster cache.
// When Enabled is false or no Redis client is available, roster reads go
// straight to the database.  TTL bounds staleness between explicit
// invalidations; keep it short, rosters change during check-in bursts.
type RosterCacheConfig struct {
	Enabled        bool
	TTL            time.Duration
	DedupRetention time.Duration
}

// LoadRosterCacheConfig reads environment variables to build a
// RosterCacheConfig.  Defaults are used when variables are not set.
func LoadRosterCacheConfig() RosterCacheConfig {
	return RosterCacheConfig{
		Enabled:        getenv("ROSTER_CACHE_ENABLED", "true") == "true",
		TTL:            parseDur(getenv("ROSTER_CACHE_TTL", "30s")),
		DedupRetention: parseDur(getenv("CONSUMER_DEDUP_RETENTION", "24h")),
	}
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
