package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"rankkit/core"
)

type DispatchMode int

const (
	DispatchSync DispatchMode = iota
	DispatchAsync
)

type subscription struct {
	id int64
	fn func(context.Context, core.Event)
}

// BusOption tunes an EventBus.
type BusOption func(*EventBus)

// WithQueueSize sets the async queue capacity (default 2048).
func WithQueueSize(n int) BusOption {
	return func(e *EventBus) {
		if n > 0 {
			e.queueSize = n
		}
	}
}

// WithWorkers sets the number of async dispatch workers (default 4).
func WithWorkers(n int) BusOption {
	return func(e *EventBus) {
		if n > 0 {
			e.asyncWorkers = n
		}
	}
}

// EventBus provides thread-safe pub/sub with sync and async dispatch.
// In async mode events are dropped when the queue is full; Dropped reports how many.
type EventBus struct {
	mode         DispatchMode
	mu           sync.RWMutex
	subs         map[core.EventType]map[int64]subscription
	nextID       int64
	queueSize    int
	asyncQueue   chan core.Event
	asyncWorkers int
	dropped      atomic.Int64
	wg           sync.WaitGroup
	ctx          context.Context
	cancel       context.CancelFunc
	closeOnce    sync.Once
}

func NewEventBus(mode DispatchMode, opts ...BusOption) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	eb := &EventBus{
		mode:         mode,
		subs:         make(map[core.EventType]map[int64]subscription),
		queueSize:    2048,
		asyncWorkers: 4,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, o := range opts {
		o(eb)
	}
	eb.asyncQueue = make(chan core.Event, eb.queueSize)
	if mode == DispatchAsync {
		eb.startWorkers()
	}
	return eb
}

func (e *EventBus) startWorkers() {
	for i := 0; i < e.asyncWorkers; i++ {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			for {
				select {
				case ev := <-e.asyncQueue:
					e.dispatchSync(context.Background(), ev)
				case <-e.ctx.Done():
					return
				}
			}
		}()
	}
}

// Close stops async workers and waits for in-flight handlers to return.
func (e *EventBus) Close() {
	e.closeOnce.Do(func() {
		e.cancel()
		e.wg.Wait()
	})
}

// Subscribe registers a handler for an event type. Returns unsubscribe func.
func (e *EventBus) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	if e.subs[typ] == nil {
		e.subs[typ] = make(map[int64]subscription)
	}
	e.subs[typ][id] = subscription{id: id, fn: handler}
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if m := e.subs[typ]; m != nil {
			delete(m, id)
		}
	}
}

// SubscribeAll registers handler for every leaderboard event type.
func (e *EventBus) SubscribeAll(handler func(context.Context, core.Event)) func() {
	unsubs := make([]func(), 0, len(core.AllEventTypes))
	for _, typ := range core.AllEventTypes {
		unsubs = append(unsubs, e.Subscribe(typ, handler))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// Publish sends an event to subscribers.
func (e *EventBus) Publish(ctx context.Context, ev core.Event) {
	if e.mode == DispatchAsync {
		select {
		case e.asyncQueue <- ev:
		default:
			e.dropped.Add(1)
		}
		return
	}
	e.dispatchSync(ctx, ev)
}

// Dropped returns the number of events discarded because the async queue was full.
func (e *EventBus) Dropped() int64 { return e.dropped.Load() }

func (e *EventBus) dispatchSync(ctx context.Context, ev core.Event) {
	e.mu.RLock()
	subs := e.subs[ev.Type]
	handlers := make([]func(context.Context, core.Event), 0, len(subs))
	for _, s := range subs {
		handlers = append(handlers, s.fn)
	}
	e.mu.RUnlock()
	for _, h := range handlers {
		h(ctx, ev)
	}
}
