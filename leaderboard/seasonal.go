package leaderboard

import (
	"context"
	"errors"

	"rankkit/core"
	"rankkit/engine"
)

type seasonalNamespace struct {
	name, rankKey, dataKey, archiveKey string
	cache                              *seasonCache
}

func (n *seasonalNamespace) resolve(ctx context.Context) (Keys, error) {
	season, err := n.cache.get(ctx)
	if err != nil {
		return Keys{}, err
	}
	return n.keysFor(season), nil
}

func (n *seasonalNamespace) keysFor(season string) Keys {
	return Keys{
		Rank:    joinKey(n.name, n.rankKey, season),
		Data:    joinKey(n.name, n.dataKey, season),
		Archive: joinKey(n.name, n.archiveKey),
		Field:   season,
		Season:  season,
	}
}

// SeasonalBoard partitions a Board by season. Every operation resolves the current season
// first (cached for the season TTL) and works on that season's keys. Snapshots of all seasons
// share one archive map keyed by season id.
type SeasonalBoard struct {
	*Board
	ns *seasonalNamespace
}

// NewSeasonal builds a score-ranked board partitioned by the seasons provider reports.
func NewSeasonal(store engine.RankingStore, provider engine.SeasonProvider, opts ...Option) (*SeasonalBoard, error) {
	return NewSeasonalWithPolicy(store, provider, ScorePolicy{}, opts...)
}

// NewSeasonalWithPolicy is NewSeasonal with a custom ranking policy.
func NewSeasonalWithPolicy(store engine.RankingStore, provider engine.SeasonProvider, policy Policy, opts ...Option) (*SeasonalBoard, error) {
	if policy == nil {
		return nil, core.ErrAbstractInstantiation
	}
	if provider == nil {
		return nil, errors.New("leaderboard: season provider is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b, err := newBoard(store, policy, o)
	if err != nil {
		return nil, err
	}
	ns := &seasonalNamespace{
		name:       o.name,
		rankKey:    o.rankKey,
		dataKey:    o.dataKey,
		archiveKey: o.archiveKey,
		cache:      newSeasonCache(provider, o.seasonTTL, o.clock),
	}
	b.ns = ns
	return &SeasonalBoard{Board: b, ns: ns}, nil
}

// Season returns the current (possibly cached) season id.
func (s *SeasonalBoard) Season(ctx context.Context) (string, error) {
	if _, err := s.handle(); err != nil {
		return "", err
	}
	return s.ns.cache.get(ctx)
}

// Refresh drops the cached season id so the next call asks the provider.
func (s *SeasonalBoard) Refresh() { s.ns.cache.invalidate() }

func (s *SeasonalBoard) seasonScope(season string) (Scope, error) {
	if season == "" {
		return Scope{}, errors.New("leaderboard: season cannot be empty")
	}
	return s.scopeFor(s.ns.keysFor(season))
}

// LoadSeason reads the snapshot archived for season. It returns nil when none exists.
func (s *SeasonalBoard) LoadSeason(ctx context.Context, season string) ([]core.Ranked, error) {
	sc, err := s.seasonScope(season)
	if err != nil {
		return nil, err
	}
	return s.loadIn(ctx, sc)
}

// SaveSeason archives the current view of season, which need not be the current one.
func (s *SeasonalBoard) SaveSeason(ctx context.Context, season string) ([]core.Ranked, error) {
	sc, err := s.seasonScope(season)
	if err != nil {
		return nil, err
	}
	return s.saveIn(ctx, sc)
}

// RangeSeason queries an arbitrary season's live ranking.
func (s *SeasonalBoard) RangeSeason(ctx context.Context, season string, start, stop int64) (core.RangeResult, error) {
	sc, err := s.seasonScope(season)
	if err != nil {
		return core.RangeResult{}, err
	}
	return s.rangeIn(ctx, sc, start, stop)
}

// CleanSeason drops season's live ranking and payloads. Its archive entry is kept.
func (s *SeasonalBoard) CleanSeason(ctx context.Context, season string) error {
	sc, err := s.seasonScope(season)
	if err != nil {
		return err
	}
	return s.cleanIn(ctx, sc)
}

// Rotate archives the snapshot of season and then cleans its live data. Writes that land
// between the two steps are lost with the clean.
func (s *SeasonalBoard) Rotate(ctx context.Context, season string) ([]core.Ranked, error) {
	sc, err := s.seasonScope(season)
	if err != nil {
		return nil, err
	}
	entries, err := s.saveIn(ctx, sc)
	if err != nil {
		return nil, err
	}
	if err := s.cleanIn(ctx, sc); err != nil {
		return entries, err
	}
	s.logger.InfoContext(ctx, "season rotated", "season", season, "archived", len(entries))
	return entries, nil
}
