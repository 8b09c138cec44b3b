// Package boards builds and owns the named leaderboards of a deployment.
package boards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"rankkit/adapters/memory"
	"rankkit/core"
	"rankkit/engine"
	"rankkit/leaderboard"
	"rankkit/realtime"
)

var (
	ErrBoardNotFound = errors.New("board not found")
	ErrNotSeasonal   = errors.New("board is not seasonal")
	ErrBoardExists   = errors.New("board already registered")
)

// Board is the operation set shared by plain and seasonal leaderboards.
type Board interface {
	Name() string
	MaxNum() int64
	Keys(ctx context.Context) (leaderboard.Keys, error)
	Set(ctx context.Context, e core.Entry) error
	Get(ctx context.Context, id string) (core.GetResult, error)
	Delete(ctx context.Context, id string) error
	Rank(ctx context.Context, id string) (core.RankResult, error)
	Range(ctx context.Context, start, stop int64) (core.RangeResult, error)
	All(ctx context.Context) (core.RangeResult, error)
	Save(ctx context.Context) ([]core.Ranked, error)
	Load(ctx context.Context) ([]core.Ranked, error)
	Clean(ctx context.Context) error
	Release()
}

// Definition describes one board to register.
type Definition struct {
	Name       string
	RankKey    string
	DataKey    string
	ArchiveKey string
	MaxNum     int64
	Seasonal   bool
}

// Option configures the Registry builder.
type Option func(*config)

type config struct {
	store     engine.RankingStore
	mode      engine.DispatchMode
	hub       *realtime.Hub
	provider  engine.SeasonProvider
	seasonTTL time.Duration
	clock     leaderboard.Clock
	logger    *slog.Logger
	handlers  []func(context.Context, core.Event)
}

// WithStore sets the ranking store.
func WithStore(s engine.RankingStore) Option { return func(c *config) { c.store = s } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithRealtime wires a realtime hub to receive all board events.
func WithRealtime(h *realtime.Hub) Option { return func(c *config) { c.hub = h } }

// WithSeasonProvider sets the provider used by seasonal boards.
func WithSeasonProvider(p engine.SeasonProvider) Option { return func(c *config) { c.provider = p } }

// WithSeasonTTL sets the season cache lifetime of seasonal boards.
func WithSeasonTTL(d time.Duration) Option { return func(c *config) { c.seasonTTL = d } }

// WithClock sets the clock of the season caches.
func WithClock(clock leaderboard.Clock) Option { return func(c *config) { c.clock = clock } }

// WithLogger sets the logger handed to every board.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithEventHandler subscribes h to every board event.
func WithEventHandler(h func(context.Context, core.Event)) Option {
	return func(c *config) { c.handlers = append(c.handlers, h) }
}

// Registry owns the boards of a deployment, their event bus and season rotation.
type Registry struct {
	cfg    config
	bus    *engine.EventBus
	logger *slog.Logger

	mu     sync.RWMutex
	boards map[string]Board
}

// New builds a Registry. If not provided, defaults are used:
//   - store: in-memory
//   - dispatch: async
//   - season ttl: leaderboard.DefaultSeasonTTL
func New(opts ...Option) *Registry {
	cfg := config{mode: engine.DispatchAsync, seasonTTL: leaderboard.DefaultSeasonTTL}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.store == nil {
		cfg.store = memory.New()
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	bus := engine.NewEventBus(cfg.mode)
	if cfg.hub != nil {
		bus.SubscribeAll(cfg.hub.Broadcast)
	}
	for _, h := range cfg.handlers {
		bus.SubscribeAll(h)
	}
	return &Registry{cfg: cfg, bus: bus, logger: cfg.logger, boards: map[string]Board{}}
}

// Register builds and adds a board.
func (r *Registry) Register(def Definition) (Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.boards[def.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrBoardExists, def.Name)
	}
	opts := []leaderboard.Option{
		leaderboard.WithName(def.Name),
		leaderboard.WithKeys(def.RankKey, def.DataKey, def.ArchiveKey),
		leaderboard.WithLogger(r.logger),
		leaderboard.WithPublisher(r.bus),
		leaderboard.WithSeasonTTL(r.cfg.seasonTTL),
	}
	if def.MaxNum != 0 {
		opts = append(opts, leaderboard.WithMaxNum(def.MaxNum))
	}
	if r.cfg.clock != nil {
		opts = append(opts, leaderboard.WithClock(r.cfg.clock))
	}

	var (
		b   Board
		err error
	)
	if def.Seasonal {
		if r.cfg.provider == nil {
			return nil, fmt.Errorf("board %s: seasonal boards need a season provider", def.Name)
		}
		b, err = leaderboard.NewSeasonal(r.cfg.store, r.cfg.provider, opts...)
	} else {
		b, err = leaderboard.NewScoreBoard(r.cfg.store, opts...)
	}
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", def.Name, err)
	}
	r.boards[def.Name] = b
	r.logger.Info("board registered", "board", def.Name, "max_num", b.MaxNum(), "seasonal", def.Seasonal)
	return b, nil
}

// Get returns the named board.
func (r *Registry) Get(name string) (Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boards[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBoardNotFound, name)
	}
	return b, nil
}

// Seasonal returns the named board if it is seasonal.
func (r *Registry) Seasonal(name string) (*leaderboard.SeasonalBoard, error) {
	b, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	sb, ok := b.(*leaderboard.SeasonalBoard)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotSeasonal, name)
	}
	return sb, nil
}

// Names returns the registered board names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.boards))
	for n := range r.boards {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Store returns the shared ranking store.
func (r *Registry) Store() engine.RankingStore { return r.cfg.store }

// Bus returns the event bus every board publishes to.
func (r *Registry) Bus() *engine.EventBus { return r.bus }

// Ping checks the ranking store.
func (r *Registry) Ping(ctx context.Context) error { return r.cfg.store.Ping(ctx) }

// Close releases every board and stops the event bus.
func (r *Registry) Close() {
	r.mu.Lock()
	for _, b := range r.boards {
		b.Release()
	}
	r.mu.Unlock()
	r.bus.Close()
}
