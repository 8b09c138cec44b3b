package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"rankkit/core"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)

	ev := core.NewEntrySet("arena", "", "bob", 10)
	h.Broadcast(context.Background(), ev)

	received := <-ch
	if received.ID != "bob" || received.Type != core.EventEntrySet {
		t.Fatalf("unexpected event: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
	if h.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", h.Subscribers())
	}
}

func TestHubBoardFilter(t *testing.T) {
	h := NewHub()
	_, arena := h.Subscribe(4, "arena")
	_, all := h.Subscribe(4)

	h.Broadcast(context.Background(), core.NewEntrySet("weekly", "", "a", 1))
	h.Broadcast(context.Background(), core.NewEntrySet("arena", "", "b", 2))

	if got := (<-arena).ID; got != "b" {
		t.Fatalf("arena subscriber got %q", got)
	}
	if len(arena) != 0 {
		t.Fatal("arena subscriber received a foreign board event")
	}
	if len(all) != 2 {
		t.Fatalf("unfiltered subscriber expected 2 events, got %d", len(all))
	}
}

func TestHubDropsWhenFull(t *testing.T) {
	h := NewHub()
	_, _ = h.Subscribe(1)
	h.Broadcast(context.Background(), core.NewBoardCleaned("arena", ""))
	h.Broadcast(context.Background(), core.NewBoardCleaned("arena", ""))
	if h.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", h.Dropped())
	}
}

func TestMarshalJSON(t *testing.T) {
	ev := core.NewSnapshotSaved("arena", "s1", 3)
	b := MarshalJSON(ev)
	var out core.Event
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Season != "s1" || out.Count != 3 {
		t.Fatalf("unexpected event: %+v", out)
	}
}
