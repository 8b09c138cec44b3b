package leaderboard

import (
	"log/slog"
	"time"

	"rankkit/core"
	"rankkit/engine"
)

const (
	DefaultName       = "leaderboard"
	DefaultRankKey    = "rank"
	DefaultDataKey    = "data"
	DefaultArchiveKey = "all"
	DefaultMaxNum     = 100
	DefaultSeasonTTL  = 1500 * time.Millisecond
)

// Option configures a Board.
type Option func(*options)

type options struct {
	name       string
	rankKey    string
	dataKey    string
	archiveKey string
	maxNum     int64
	codec      core.Codec
	logger     *slog.Logger
	publisher  engine.Publisher
	seasonTTL  time.Duration
	clock      Clock
}

func defaultOptions() options {
	return options{
		name:       DefaultName,
		rankKey:    DefaultRankKey,
		dataKey:    DefaultDataKey,
		archiveKey: DefaultArchiveKey,
		maxNum:     DefaultMaxNum,
		codec:      core.JSONCodec{},
		seasonTTL:  DefaultSeasonTTL,
		clock:      systemClock{},
	}
}

// WithName sets the leaderboard type name every key is prefixed with.
func WithName(name string) Option { return func(o *options) { o.name = name } }

// WithKeys overrides the rank, data and archive key suffixes. Empty values keep the default.
func WithKeys(rank, data, archive string) Option {
	return func(o *options) {
		if rank != "" {
			o.rankKey = rank
		}
		if data != "" {
			o.dataKey = data
		}
		if archive != "" {
			o.archiveKey = archive
		}
	}
}

// WithMaxNum sets the visible capacity of the board.
func WithMaxNum(n int64) Option { return func(o *options) { o.maxNum = n } }

// WithCodec sets the payload codec (default JSON).
func WithCodec(c core.Codec) Option { return func(o *options) { o.codec = c } }

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithPublisher forwards board events to p.
func WithPublisher(p engine.Publisher) Option { return func(o *options) { o.publisher = p } }

// WithSeasonTTL sets how long a fetched season id is reused.
func WithSeasonTTL(d time.Duration) Option { return func(o *options) { o.seasonTTL = d } }

// WithClock replaces the wall clock used by the season cache.
func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }
