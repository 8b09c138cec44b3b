package core

import (
	"fmt"
	"math"
	"reflect"
)

// Entry is a participant submitted to a leaderboard.
type Entry struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Payload any     `json:"payload"`
}

// Ranked is an entry as seen through a leaderboard read: its position plus the decoded payload.
type Ranked struct {
	ID      string  `json:"id"`
	Rank    int64   `json:"rank"`
	Score   float64 `json:"score,omitempty"`
	Payload any     `json:"payload"`
}

// Member is a raw (id, score) pair from a ranking index.
type Member struct {
	ID    string
	Score float64
}

// RepairKind names a corrective action a read path performed on the store.
type RepairKind string

const (
	// RepairEvicted is recorded when a rank lookup found the id beyond capacity.
	RepairEvicted RepairKind = "evicted"
	// RepairTrimmed is recorded for every other id removed by the same capacity trim.
	RepairTrimmed RepairKind = "trimmed"
	// RepairOrphan is recorded when an indexed id had no payload and was removed.
	RepairOrphan RepairKind = "orphan"
)

// Repair describes one corrective action taken against the store.
type Repair struct {
	Kind RepairKind `json:"kind"`
	ID   string     `json:"id"`
}

// NotRanked is the rank reported for ids that are absent or evicted.
const NotRanked int64 = -1

// RankResult is the outcome of a rank lookup.
type RankResult struct {
	Rank    int64
	Repairs []Repair
}

// Found reports whether the id holds a visible rank.
func (r RankResult) Found() bool { return r.Rank > 0 }

// RangeResult is the outcome of a range query.
type RangeResult struct {
	Entries []Ranked
	Repairs []Repair
}

// GetResult is the outcome of a single-entry lookup. Entry is nil when not found.
type GetResult struct {
	Entry   *Ranked
	Repairs []Repair
}

// ValidateID rejects empty participant ids. Whitespace-only ids are valid.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidEntry)
	}
	return nil
}

// Validate rejects entries with an empty id, a zero or NaN score, or an empty payload.
// A score of exactly zero counts as absent. A payload is empty when it is nil, an empty
// string or byte slice, false, or a numeric zero (NaN included).
func (e Entry) Validate() error {
	if err := ValidateID(e.ID); err != nil {
		return err
	}
	if e.Score == 0 || math.IsNaN(e.Score) {
		return fmt.Errorf("%w: score must be non-zero, got %v", ErrInvalidEntry, e.Score)
	}
	if isEmptyPayload(e.Payload) {
		return fmt.Errorf("%w: empty payload for id %q", ErrInvalidEntry, e.ID)
	}
	return nil
}

func isEmptyPayload(p any) bool {
	switch v := p.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	}
	rv := reflect.ValueOf(p)
	switch rv.Kind() {
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f == 0 || math.IsNaN(f)
	}
	return false
}
