// Package season provides engine.SeasonProvider implementations.
package season

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"rankkit/engine"
)

// Fixed always reports the same season.
type Fixed string

func (f Fixed) CurrentSeason(context.Context) (string, error) {
	if f == "" {
		return "", errors.New("fixed season is empty")
	}
	return string(f), nil
}

// Manual reports whatever season was last Set. It is safe for concurrent use.
type Manual struct {
	mu     sync.RWMutex
	season string
}

func NewManual(initial string) *Manual { return &Manual{season: initial} }

func (m *Manual) Set(season string) {
	m.mu.Lock()
	m.season = season
	m.mu.Unlock()
}

func (m *Manual) CurrentSeason(context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.season == "" {
		return "", errors.New("no season set")
	}
	return m.season, nil
}

// Periodic numbers fixed-length seasons starting at Epoch: the season containing Epoch is
// Prefix+"1", the next one Prefix+"2" and so on.
type Periodic struct {
	Epoch  time.Time
	Period time.Duration
	Prefix string
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewPeriodic validates the period and returns a Periodic provider.
func NewPeriodic(epoch time.Time, period time.Duration, prefix string) (*Periodic, error) {
	if period <= 0 {
		return nil, fmt.Errorf("season period must be positive, got %s", period)
	}
	return &Periodic{Epoch: epoch, Period: period, Prefix: prefix}, nil
}

func (p *Periodic) CurrentSeason(context.Context) (string, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return p.SeasonAt(now())
}

// SeasonAt returns the season id covering t.
func (p *Periodic) SeasonAt(t time.Time) (string, error) {
	if p.Period <= 0 {
		return "", fmt.Errorf("season period must be positive, got %s", p.Period)
	}
	if t.Before(p.Epoch) {
		return "", fmt.Errorf("time %s is before season epoch %s", t.Format(time.RFC3339), p.Epoch.Format(time.RFC3339))
	}
	n := int64(t.Sub(p.Epoch)/p.Period) + 1
	return p.Prefix + strconv.FormatInt(n, 10), nil
}

var (
	_ engine.SeasonProvider = Fixed("")
	_ engine.SeasonProvider = (*Manual)(nil)
	_ engine.SeasonProvider = (*Periodic)(nil)
)
