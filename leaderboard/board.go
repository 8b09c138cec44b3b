// Package leaderboard implements a bounded, score-ordered ranking over a RankingStore.
//
// A Board keeps two collections per namespace: a ranking index (id -> score) and a payload
// map (id -> encoded payload). Writes update both in one atomic batch. Reads query the index
// first and then fetch payloads, repairing what they find inconsistent; every repair is
// reported in the result and published as an event.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"rankkit/core"
	"rankkit/engine"
)

type namespace interface {
	resolve(ctx context.Context) (Keys, error)
}

type staticNamespace struct{ keys Keys }

func (n staticNamespace) resolve(context.Context) (Keys, error) { return n.keys, nil }

// Board is the leaderboard core. Ranking is delegated to its Policy.
type Board struct {
	name      string
	maxNum    int64
	codec     core.Codec
	logger    *slog.Logger
	publisher engine.Publisher
	policy    Policy
	ns        namespace

	mu       sync.RWMutex
	store    engine.RankingStore
	released bool
}

// New builds a Board ranked by policy. A nil policy is the bare core, which cannot be
// instantiated: New returns core.ErrAbstractInstantiation.
func New(store engine.RankingStore, policy Policy, opts ...Option) (*Board, error) {
	if policy == nil {
		return nil, core.ErrAbstractInstantiation
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b, err := newBoard(store, policy, o)
	if err != nil {
		return nil, err
	}
	b.ns = staticNamespace{keys: Keys{
		Rank:    joinKey(o.name, o.rankKey),
		Data:    joinKey(o.name, o.dataKey),
		Archive: joinKey(o.name, o.archiveKey),
	}}
	return b, nil
}

// NewScoreBoard builds a Board ranked by descending score.
func NewScoreBoard(store engine.RankingStore, opts ...Option) (*Board, error) {
	return New(store, ScorePolicy{}, opts...)
}

func newBoard(store engine.RankingStore, policy Policy, o options) (*Board, error) {
	if store == nil {
		return nil, errors.New("leaderboard: store is required")
	}
	if o.name == "" {
		return nil, errors.New("leaderboard: name cannot be empty")
	}
	if o.maxNum <= 0 {
		return nil, fmt.Errorf("leaderboard: max_num must be positive, got %d", o.maxNum)
	}
	if o.codec == nil {
		o.codec = core.JSONCodec{}
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Board{
		name:      o.name,
		maxNum:    o.maxNum,
		codec:     o.codec,
		logger:    logger.With("board", o.name),
		publisher: o.publisher,
		policy:    policy,
		store:     store,
	}, nil
}

func joinKey(parts ...string) string {
	return strings.Join(parts, ":")
}

// Name returns the leaderboard type name.
func (b *Board) Name() string { return b.name }

// MaxNum returns the visible capacity.
func (b *Board) MaxNum() int64 { return b.maxNum }

// Keys resolves the keys the next operation will use.
func (b *Board) Keys(ctx context.Context) (Keys, error) {
	if _, err := b.handle(); err != nil {
		return Keys{}, err
	}
	return b.ns.resolve(ctx)
}

func (b *Board) handle() (engine.RankingStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.released {
		return nil, core.ErrReleased
	}
	return b.store, nil
}

func (b *Board) scope(ctx context.Context) (Scope, error) {
	keys, err := b.Keys(ctx)
	if err != nil {
		return Scope{}, err
	}
	return b.scopeFor(keys)
}

func (b *Board) scopeFor(keys Keys) (Scope, error) {
	store, err := b.handle()
	if err != nil {
		return Scope{}, err
	}
	return Scope{Store: store, Keys: keys, MaxNum: b.maxNum, Codec: b.codec, Logger: b.logger}, nil
}

// Set validates e and upserts its score and payload in one batch.
func (b *Board) Set(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	sc, err := b.scope(ctx)
	if err != nil {
		return err
	}
	data, err := b.codec.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidEntry, err)
	}
	if err := sc.Store.Exec(ctx,
		engine.UpsertScore(sc.Keys.Rank, e.ID, e.Score),
		engine.SetField(sc.Keys.Data, e.ID, data),
	); err != nil {
		return err
	}
	b.publish(ctx, core.NewEntrySet(b.name, sc.Keys.Season, e.ID, e.Score))
	return nil
}

// Get returns id's rank and payload. A nil Entry means not found.
func (b *Board) Get(ctx context.Context, id string) (core.GetResult, error) {
	if err := core.ValidateID(id); err != nil {
		return core.GetResult{}, err
	}
	sc, err := b.scope(ctx)
	if err != nil {
		return core.GetResult{}, err
	}
	rr, err := b.rankIn(ctx, sc, id)
	if err != nil {
		return core.GetResult{}, err
	}
	res := core.GetResult{Repairs: rr.Repairs}
	if !rr.Found() {
		return res, nil
	}
	raw, ok, err := sc.Store.MapGet(ctx, sc.Keys.Data, id)
	if err != nil {
		return res, err
	}
	if !ok {
		return res, nil
	}
	payload, err := b.codec.Unmarshal(raw)
	if err != nil {
		return res, fmt.Errorf("id %q: %w", id, err)
	}
	score, _, err := sc.Store.ScoreOf(ctx, sc.Keys.Rank, id)
	if err != nil {
		return res, err
	}
	res.Entry = &core.Ranked{ID: id, Rank: rr.Rank, Score: score, Payload: payload}
	return res, nil
}

// Delete removes id from the index and the payload map. Deleting an absent id is not an error.
func (b *Board) Delete(ctx context.Context, id string) error {
	if err := core.ValidateID(id); err != nil {
		return err
	}
	sc, err := b.scope(ctx)
	if err != nil {
		return err
	}
	if err := sc.Store.Exec(ctx,
		engine.RemoveMember(sc.Keys.Rank, id),
		engine.DeleteField(sc.Keys.Data, id),
	); err != nil {
		return err
	}
	b.publish(ctx, core.NewEntryDeleted(b.name, sc.Keys.Season, id))
	return nil
}

// Rank returns id's 1-based rank or core.NotRanked. It may trim the board (see ScorePolicy).
func (b *Board) Rank(ctx context.Context, id string) (core.RankResult, error) {
	if err := core.ValidateID(id); err != nil {
		return core.RankResult{Rank: core.NotRanked}, err
	}
	sc, err := b.scope(ctx)
	if err != nil {
		return core.RankResult{Rank: core.NotRanked}, err
	}
	return b.rankIn(ctx, sc, id)
}

func (b *Board) rankIn(ctx context.Context, sc Scope, id string) (core.RankResult, error) {
	rr, err := b.policy.Rank(ctx, sc, id)
	if err != nil {
		return core.RankResult{Rank: core.NotRanked}, err
	}
	b.reportRepairs(ctx, sc.Keys, rr.Repairs)
	return rr, nil
}

// Range returns the entries at positions [start, stop].
func (b *Board) Range(ctx context.Context, start, stop int64) (core.RangeResult, error) {
	sc, err := b.scope(ctx)
	if err != nil {
		return core.RangeResult{}, err
	}
	return b.rangeIn(ctx, sc, start, stop)
}

func (b *Board) rangeIn(ctx context.Context, sc Scope, start, stop int64) (core.RangeResult, error) {
	res, err := b.policy.Range(ctx, sc, start, stop)
	if err != nil {
		return core.RangeResult{}, err
	}
	if res.Entries == nil {
		res.Entries = []core.Ranked{}
	}
	b.reportRepairs(ctx, sc.Keys, res.Repairs)
	return res, nil
}

// All is Range(0, MaxNum).
func (b *Board) All(ctx context.Context) (core.RangeResult, error) {
	return b.Range(ctx, 0, b.maxNum)
}

// Save writes the current view to the archive and returns what was written.
func (b *Board) Save(ctx context.Context) ([]core.Ranked, error) {
	sc, err := b.scope(ctx)
	if err != nil {
		return nil, err
	}
	return b.saveIn(ctx, sc)
}

func (b *Board) saveIn(ctx context.Context, sc Scope) ([]core.Ranked, error) {
	res, err := b.rangeIn(ctx, sc, 0, b.maxNum)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(res.Entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if sc.Keys.Field == "" {
		err = sc.Store.Put(ctx, sc.Keys.Archive, data)
	} else {
		err = sc.Store.MapSet(ctx, sc.Keys.Archive, sc.Keys.Field, data)
	}
	if err != nil {
		return nil, err
	}
	b.logger.DebugContext(ctx, "snapshot saved", "key", sc.Keys.Archive, "season", sc.Keys.Season, "entries", len(res.Entries))
	b.publish(ctx, core.NewSnapshotSaved(b.name, sc.Keys.Season, len(res.Entries)))
	return res.Entries, nil
}

// Load reads the archived snapshot. It returns nil when nothing was saved.
func (b *Board) Load(ctx context.Context) ([]core.Ranked, error) {
	sc, err := b.scope(ctx)
	if err != nil {
		return nil, err
	}
	return b.loadIn(ctx, sc)
}

func (b *Board) loadIn(ctx context.Context, sc Scope) ([]core.Ranked, error) {
	var (
		data []byte
		ok   bool
		err  error
	)
	if sc.Keys.Field == "" {
		data, ok, err = sc.Store.Get(ctx, sc.Keys.Archive)
	} else {
		data, ok, err = sc.Store.MapGet(ctx, sc.Keys.Archive, sc.Keys.Field)
	}
	if err != nil || !ok {
		return nil, err
	}
	var entries []core.Ranked
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if entries == nil {
		entries = []core.Ranked{}
	}
	return entries, nil
}

// Clean deletes the ranking index and payload map. The archive is kept.
func (b *Board) Clean(ctx context.Context) error {
	sc, err := b.scope(ctx)
	if err != nil {
		return err
	}
	return b.cleanIn(ctx, sc)
}

func (b *Board) cleanIn(ctx context.Context, sc Scope) error {
	if err := sc.Store.Delete(ctx, sc.Keys.Rank, sc.Keys.Data); err != nil {
		return err
	}
	b.logger.InfoContext(ctx, "board cleaned", "season", sc.Keys.Season)
	b.publish(ctx, core.NewBoardCleaned(b.name, sc.Keys.Season))
	return nil
}

// Release detaches the store. Every later call fails with core.ErrReleased.
func (b *Board) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.released = true
	b.store = nil
	b.publisher = nil
}

func (b *Board) reportRepairs(ctx context.Context, keys Keys, repairs []core.Repair) {
	if len(repairs) == 0 {
		return
	}
	trimmed := 0
	for _, r := range repairs {
		if r.Kind == core.RepairTrimmed {
			trimmed++
		}
	}
	for _, r := range repairs {
		switch r.Kind {
		case core.RepairEvicted:
			b.logger.InfoContext(ctx, "entry evicted beyond capacity", "id", r.ID, "max_num", b.maxNum, "trimmed", trimmed)
			b.publish(ctx, core.NewEntryEvicted(b.name, keys.Season, r.ID, trimmed))
		case core.RepairOrphan:
			b.logger.WarnContext(ctx, "orphaned ranking entry removed", "key", keys.Rank, "id", r.ID)
			b.publish(ctx, core.NewOrphanRepaired(b.name, keys.Season, r.ID))
		}
	}
}

func (b *Board) publish(ctx context.Context, ev core.Event) {
	b.mu.RLock()
	p := b.publisher
	b.mu.RUnlock()
	if p != nil {
		p.Publish(ctx, ev)
	}
}
