package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"rankkit/core"
	"rankkit/realtime"
)

func dial(t *testing.T, url string) *gorillaws.Conn {
	t.Helper()
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForSubscribers(t *testing.T, hub *realtime.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscribers", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandlerStreamsEvents(t *testing.T) {
	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):] // convert http->ws
	conn := dial(t, wsURL)
	waitForSubscribers(t, hub, 1)

	hub.Broadcast(context.Background(), core.NewEntrySet("arena", "", "alice", 5))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}

	var received core.Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if received.ID != "alice" || received.Board != "arena" {
		t.Fatalf("unexpected event: %+v", received)
	}
}

func TestHandlerFiltersByBoard(t *testing.T) {
	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	conn := dial(t, "ws"+server.URL[len("http"):]+"?board=weekly")
	waitForSubscribers(t, hub, 1)

	hub.Broadcast(context.Background(), core.NewEntrySet("arena", "", "skip", 1))
	hub.Broadcast(context.Background(), core.NewEntrySet("weekly", "w1", "keep", 2))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var received core.Event
	if err := json.Unmarshal(msg, &received); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if received.ID != "keep" {
		t.Fatalf("expected only weekly events, got %+v", received)
	}
}

func TestHandlerUnsubscribesOnClose(t *testing.T) {
	hub := realtime.NewHub()
	server := httptest.NewServer(Handler(hub))
	defer server.Close()

	conn, _, err := gorillaws.DefaultDialer.Dial("ws"+server.URL[len("http"):], nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	waitForSubscribers(t, hub, 1)
	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after client close")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
