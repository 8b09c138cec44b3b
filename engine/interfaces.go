package engine

import (
	"context"

	"rankkit/core"
)

// OpKind identifies a primitive mutation inside a batch.
type OpKind int

const (
	// OpUpsertScore sets Member's score in the ranking index at Key.
	OpUpsertScore OpKind = iota
	// OpRemoveMember removes Member from the ranking index at Key.
	OpRemoveMember
	// OpSetField stores Value under field Member of the map at Key.
	OpSetField
	// OpDeleteField removes field Member from the map at Key.
	OpDeleteField
)

func (k OpKind) String() string {
	switch k {
	case OpUpsertScore:
		return "upsert_score"
	case OpRemoveMember:
		return "remove_member"
	case OpSetField:
		return "set_field"
	case OpDeleteField:
		return "delete_field"
	default:
		return "unknown"
	}
}

// Op is one primitive mutation executed as part of an atomic batch.
type Op struct {
	Kind   OpKind
	Key    string
	Member string
	Score  float64
	Value  []byte
}

func UpsertScore(key, member string, score float64) Op {
	return Op{Kind: OpUpsertScore, Key: key, Member: member, Score: score}
}

func RemoveMember(key, member string) Op {
	return Op{Kind: OpRemoveMember, Key: key, Member: member}
}

func SetField(key, field string, value []byte) Op {
	return Op{Kind: OpSetField, Key: key, Member: field, Value: value}
}

func DeleteField(key, field string) Op {
	return Op{Kind: OpDeleteField, Key: key, Member: field}
}

// RankingStore abstracts the ordered index + map store backing a leaderboard.
// Positions are zero-based and ordered by descending score; equal scores are ordered by
// descending member id.
type RankingStore interface {
	// Exec applies ops atomically: all of them or none.
	Exec(ctx context.Context, ops ...Op) error
	// TrimIndex removes every member ranked below the top keep from the index at key and
	// deletes their fields from the map at dataKey, as one atomic step. The overflow is
	// computed when the trim runs. It returns the removed ids in descending order.
	TrimIndex(ctx context.Context, key, dataKey string, keep int64) ([]string, error)
	// PositionDesc returns the zero-based descending position of member, or false if absent.
	PositionDesc(ctx context.Context, key, member string) (pos int64, ok bool, err error)
	// ScoreOf returns member's score, or false if absent.
	ScoreOf(ctx context.Context, key, member string) (score float64, ok bool, err error)
	// RangeDesc returns members at descending positions [start, stop] inclusive; stop -1 means the end.
	RangeDesc(ctx context.Context, key string, start, stop int64) ([]core.Member, error)
	// MapGetMany returns the present fields among fields; absent fields are omitted.
	MapGetMany(ctx context.Context, key string, fields []string) (map[string][]byte, error)
	MapGet(ctx context.Context, key, field string) (value []byte, ok bool, err error)
	MapSet(ctx context.Context, key, field string, value []byte) error
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// SeasonProvider names the currently active season.
type SeasonProvider interface {
	CurrentSeason(ctx context.Context) (string, error)
}

// Publisher receives leaderboard events. Implementations must not block the caller for long.
type Publisher interface {
	Publish(ctx context.Context, ev core.Event)
}
