package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rankkit/engine"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// seasonCache memoizes the provider's answer for ttl. Concurrent callers that miss wait on
// the same fetch instead of hitting the provider in parallel.
type seasonCache struct {
	provider engine.SeasonProvider
	ttl      time.Duration
	clock    Clock

	mu        sync.Mutex
	value     string
	fetchedAt time.Time
	valid     bool
}

func newSeasonCache(p engine.SeasonProvider, ttl time.Duration, clock Clock) *seasonCache {
	if clock == nil {
		clock = systemClock{}
	}
	return &seasonCache{provider: p, ttl: ttl, clock: clock}
}

func (c *seasonCache) get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	if c.valid && now.Sub(c.fetchedAt) < c.ttl {
		return c.value, nil
	}
	season, err := c.provider.CurrentSeason(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to resolve season: %w", err)
	}
	if season == "" {
		return "", errors.New("failed to resolve season: provider returned an empty season")
	}
	c.value, c.fetchedAt, c.valid = season, now, true
	return season, nil
}

// invalidate forces the next get to consult the provider.
func (c *seasonCache) invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}
