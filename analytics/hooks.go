package analytics

import (
	"context"
	"sync"
	"time"

	"rankkit/core"
)

// Hook receives leaderboard events.
type Hook interface {
	OnEvent(ctx context.Context, e core.Event)
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, e core.Event)

func (f HookFunc) OnEvent(ctx context.Context, e core.Event) { f(ctx, e) }

// BridgeHook bridges an event source to multiple hooks.
type BridgeHook struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *BridgeHook { return &BridgeHook{hooks: hooks} }

func (b *BridgeHook) OnEvent(ctx context.Context, e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(ctx, e)
	}
}

// DayStats is the activity of one board on one UTC day.
type DayStats struct {
	ActiveParticipants int   `json:"active_participants"`
	Writes             int64 `json:"writes"`
	Deletes            int64 `json:"deletes"`
	Evictions          int64 `json:"evictions"`
	Trimmed            int64 `json:"trimmed"`
	OrphansRepaired    int64 `json:"orphans_repaired"`
	Snapshots          int64 `json:"snapshots"`
}

type dayBucket struct {
	participants map[string]struct{}
	stats        DayStats
}

// BoardStats aggregates per-board daily activity from events.
type BoardStats struct {
	mu   sync.Mutex
	days map[string]map[string]*dayBucket // board -> day -> bucket
}

func NewBoardStats() *BoardStats { return &BoardStats{days: map[string]map[string]*dayBucket{}} }

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func (s *BoardStats) OnEvent(_ context.Context, e core.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay := s.days[e.Board]
	if byDay == nil {
		byDay = map[string]*dayBucket{}
		s.days[e.Board] = byDay
	}
	day := dayKey(e.Time)
	b := byDay[day]
	if b == nil {
		b = &dayBucket{participants: map[string]struct{}{}}
		byDay[day] = b
	}
	switch e.Type {
	case core.EventEntrySet:
		b.stats.Writes++
		b.participants[e.ID] = struct{}{}
	case core.EventEntryDeleted:
		b.stats.Deletes++
	case core.EventEntryEvicted:
		b.stats.Evictions++
		b.stats.Trimmed += int64(e.Count)
	case core.EventOrphanRepaired:
		b.stats.OrphansRepaired++
	case core.EventSnapshotSaved:
		b.stats.Snapshots++
	}
	b.stats.ActiveParticipants = len(b.participants)
}

// Day returns the stats of board on day (formatted 2006-01-02).
func (s *BoardStats) Day(board, day string) DayStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.days[board][day]; b != nil {
		return b.stats
	}
	return DayStats{}
}

// Boards returns every board seen so far.
func (s *BoardStats) Boards() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.days))
	for b := range s.days {
		out = append(out, b)
	}
	return out
}
