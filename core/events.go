package core

import "time"

// EventType enumerates leaderboard events.
type EventType string

const (
	EventEntrySet       EventType = "entry_set"
	EventEntryDeleted   EventType = "entry_deleted"
	EventEntryEvicted   EventType = "entry_evicted"
	EventOrphanRepaired EventType = "orphan_repaired"
	EventSnapshotSaved  EventType = "snapshot_saved"
	EventBoardCleaned   EventType = "board_cleaned"
)

// AllEventTypes lists every event a leaderboard can publish.
var AllEventTypes = []EventType{
	EventEntrySet,
	EventEntryDeleted,
	EventEntryEvicted,
	EventOrphanRepaired,
	EventSnapshotSaved,
	EventBoardCleaned,
}

// Event represents an immutable leaderboard event.
type Event struct {
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	Board    string         `json:"board"`
	Season   string         `json:"season,omitempty"`
	ID       string         `json:"id,omitempty"`
	Score    float64        `json:"score,omitempty"`
	Count    int            `json:"count,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewEntrySet(board, season, id string, score float64) Event {
	return Event{Type: EventEntrySet, Time: time.Now().UTC(), Board: board, Season: season, ID: id, Score: score}
}

func NewEntryDeleted(board, season, id string) Event {
	return Event{Type: EventEntryDeleted, Time: time.Now().UTC(), Board: board, Season: season, ID: id}
}

func NewEntryEvicted(board, season, id string, trimmed int) Event {
	return Event{Type: EventEntryEvicted, Time: time.Now().UTC(), Board: board, Season: season, ID: id, Count: trimmed}
}

func NewOrphanRepaired(board, season, id string) Event {
	return Event{Type: EventOrphanRepaired, Time: time.Now().UTC(), Board: board, Season: season, ID: id}
}

func NewSnapshotSaved(board, season string, entries int) Event {
	return Event{Type: EventSnapshotSaved, Time: time.Now().UTC(), Board: board, Season: season, Count: entries}
}

func NewBoardCleaned(board, season string) Event {
	return Event{Type: EventBoardCleaned, Time: time.Now().UTC(), Board: board, Season: season}
}
