package leaderboard

import (
	"context"
	"fmt"

	"rankkit/core"
	"rankkit/engine"
)

// ScorePolicy ranks by descending score. Rank lookups trim the index back to MaxNum once an
// id is found beyond it; range queries drop and repair ids whose payload is missing.
type ScorePolicy struct{}

func (ScorePolicy) Rank(ctx context.Context, sc Scope, id string) (core.RankResult, error) {
	pos, ok, err := sc.Store.PositionDesc(ctx, sc.Keys.Rank, id)
	if err != nil {
		return core.RankResult{Rank: core.NotRanked}, err
	}
	if !ok {
		return core.RankResult{Rank: core.NotRanked}, nil
	}
	rank := pos + 1
	if rank <= sc.MaxNum {
		return core.RankResult{Rank: rank}, nil
	}
	return evict(ctx, sc, id)
}

// evict trims the index back to MaxNum, dropping the payloads of everything it removes in the
// same store step. The overflow is whatever lies beyond the cap when the trim runs, so id may
// have been promoted in the meantime; it is then ranked again rather than reported evicted.
func evict(ctx context.Context, sc Scope, id string) (core.RankResult, error) {
	removed, err := sc.Store.TrimIndex(ctx, sc.Keys.Rank, sc.Keys.Data, sc.MaxNum)
	if err != nil {
		return core.RankResult{Rank: core.NotRanked}, err
	}
	var repairs []core.Repair
	evicted := false
	for _, rid := range removed {
		if rid == id {
			evicted = true
			continue
		}
		repairs = append(repairs, core.Repair{Kind: core.RepairTrimmed, ID: rid})
	}
	if evicted {
		repairs = append([]core.Repair{{Kind: core.RepairEvicted, ID: id}}, repairs...)
		return core.RankResult{Rank: core.NotRanked, Repairs: repairs}, nil
	}
	pos, ok, err := sc.Store.PositionDesc(ctx, sc.Keys.Rank, id)
	if err != nil {
		return core.RankResult{Rank: core.NotRanked, Repairs: repairs}, err
	}
	if !ok || pos+1 > sc.MaxNum {
		return core.RankResult{Rank: core.NotRanked, Repairs: repairs}, nil
	}
	return core.RankResult{Rank: pos + 1, Repairs: repairs}, nil
}

// Range returns ranks relative to the result list: the first entry is rank 1 whatever start is.
// stop is clamped to the last visible position (MaxNum-1).
func (ScorePolicy) Range(ctx context.Context, sc Scope, start, stop int64) (core.RangeResult, error) {
	if start < 0 || stop < start {
		return core.RangeResult{}, fmt.Errorf("%w: range [%d, %d]", core.ErrInvalidEntry, start, stop)
	}
	if last := sc.MaxNum - 1; stop > last {
		stop = last
	}
	if start > stop {
		return core.RangeResult{Entries: []core.Ranked{}}, nil
	}

	members, err := sc.Store.RangeDesc(ctx, sc.Keys.Rank, start, stop)
	if err != nil {
		return core.RangeResult{}, err
	}
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	payloads, err := sc.Store.MapGetMany(ctx, sc.Keys.Data, ids)
	if err != nil {
		return core.RangeResult{}, err
	}

	entries := make([]core.Ranked, 0, len(members))
	var repairOps []engine.Op
	var repairs []core.Repair
	for _, m := range members {
		raw, ok := payloads[m.ID]
		if !ok {
			repairOps = append(repairOps, engine.RemoveMember(sc.Keys.Rank, m.ID))
			repairs = append(repairs, core.Repair{Kind: core.RepairOrphan, ID: m.ID})
			continue
		}
		payload, err := sc.Codec.Unmarshal(raw)
		if err != nil {
			return core.RangeResult{}, fmt.Errorf("id %q: %w", m.ID, err)
		}
		entries = append(entries, core.Ranked{
			ID:      m.ID,
			Rank:    int64(len(entries) + 1),
			Score:   m.Score,
			Payload: payload,
		})
	}

	if len(repairOps) > 0 {
		if err := sc.Store.Exec(ctx, repairOps...); err != nil {
			// The orphans stay excluded from this result and are retried on the next read.
			sc.Logger.ErrorContext(ctx, "orphan repair failed", "key", sc.Keys.Rank, "orphans", len(repairOps), "error", err)
			repairs = nil
		}
	}
	return core.RangeResult{Entries: entries, Repairs: repairs}, nil
}

var _ Policy = ScorePolicy{}
