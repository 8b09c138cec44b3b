package engine

import (
	"context"
	"testing"
	"time"

	"rankkit/core"
)

func TestEventBusSync(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	bus.Subscribe(core.EventEntrySet, func(ctx context.Context, e core.Event) { count++ })
	bus.Publish(context.Background(), core.NewEntrySet("arena", "", "u", 1))
	if count != 1 {
		t.Fatalf("want 1 got %d", count)
	}
}

func TestEventBusAsync(t *testing.T) {
	bus := NewEventBus(DispatchAsync)
	defer bus.Close()
	ch := make(chan struct{})
	bus.Subscribe(core.EventEntrySet, func(ctx context.Context, e core.Event) { close(ch) })
	bus.Publish(context.Background(), core.NewEntrySet("arena", "", "u", 1))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus(DispatchSync)
	count := 0
	unsub := bus.Subscribe(core.EventBoardCleaned, func(ctx context.Context, e core.Event) { count++ })
	unsub()
	bus.Publish(context.Background(), core.NewBoardCleaned("arena", "s1"))
	if count != 0 {
		t.Fatalf("handler called after unsubscribe: %d", count)
	}
}

func TestOpKindString(t *testing.T) {
	if OpDeleteField.String() != "delete_field" || OpKind(99).String() != "unknown" {
		t.Fatal("unexpected op names")
	}
}

var _ Publisher = (*EventBus)(nil)
