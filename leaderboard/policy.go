package leaderboard

import (
	"context"
	"log/slog"

	"rankkit/core"
	"rankkit/engine"
)

// Keys are the store keys a single operation works against.
type Keys struct {
	Rank    string
	Data    string
	Archive string
	// Field is the archive map field; empty means the archive is a scalar blob.
	Field  string
	Season string
}

// Scope is everything a Policy needs to answer one call.
type Scope struct {
	Store  engine.RankingStore
	Keys   Keys
	MaxNum int64
	Codec  core.Codec
	Logger *slog.Logger
}

// Policy supplies the ranking behaviour of a Board. Read-path side effects are reported
// through the Repairs of the returned result.
type Policy interface {
	Rank(ctx context.Context, sc Scope, id string) (core.RankResult, error)
	Range(ctx context.Context, sc Scope, start, stop int64) (core.RangeResult, error)
}

// UnimplementedPolicy can be embedded by policies that only provide part of the contract.
// Every method it supplies fails with core.ErrUnimplementedOperation.
type UnimplementedPolicy struct{}

func (UnimplementedPolicy) Rank(context.Context, Scope, string) (core.RankResult, error) {
	return core.RankResult{Rank: core.NotRanked}, core.ErrUnimplementedOperation
}

func (UnimplementedPolicy) Range(context.Context, Scope, int64, int64) (core.RangeResult, error) {
	return core.RangeResult{}, core.ErrUnimplementedOperation
}
