package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"rankkit/core"
)

type subscriber struct {
	ch     chan core.Event
	boards map[string]struct{}
}

func (s subscriber) wants(board string) bool {
	if len(s.boards) == 0 {
		return true
	}
	_, ok := s.boards[board]
	return ok
}

// Hub is a simple pub/sub for broadcasting leaderboard events to channels.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]subscriber
	next    int
	dropped atomic.Int64
}

func NewHub() *Hub { return &Hub{subs: map[int]subscriber{}} }

// Subscribe returns a channel receiving events of the given boards, or of every board when
// none are named.
func (h *Hub) Subscribe(buffer int, boards ...string) (int, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	sub := subscriber{ch: make(chan core.Event, buffer)}
	if len(boards) > 0 {
		sub.boards = make(map[string]struct{}, len(boards))
		for _, b := range boards {
			sub.boards[b] = struct{}{}
		}
	}
	h.subs[id] = sub
	return id, sub.ch
}

func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast delivers ev to every interested subscriber without blocking. Events for full
// channels are dropped and counted.
func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if !sub.wants(ev.Board) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped reports how many deliveries were skipped because a subscriber was full.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// MarshalJSON is a helper to convert events to JSON bytes for WebSocket/SSE.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
