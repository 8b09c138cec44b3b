package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"rankkit/core"
)

const (
	HeaderDelivery = "X-Rankkit-Delivery"
	HeaderEvent    = "X-Rankkit-Event"
)

// Sink posts leaderboard events to configured HTTP endpoints.
// It is synchronous for determinism; subscribe it to an async EventBus to keep boards fast.
type Sink struct {
	client    *http.Client
	endpoints []string
	types     map[core.EventType]struct{}
	logger    *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithEventTypes restricts delivery to the given event types.
func WithEventTypes(types ...core.EventType) Option {
	return func(s *Sink) {
		s.types = make(map[core.EventType]struct{}, len(types))
		for _, t := range types {
			s.types[t] = struct{}{}
		}
	}
}

// WithLogger sets the logger used to report failed deliveries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// OnEvent posts the event JSON to all endpoints. Each post carries a fresh delivery id.
// Failures are logged and do not stop delivery to the remaining endpoints.
func (s *Sink) OnEvent(ctx context.Context, e core.Event) {
	if len(s.endpoints) == 0 {
		return
	}
	if s.types != nil {
		if _, ok := s.types[e.Type]; !ok {
			return
		}
	}
	body, err := json.Marshal(e)
	if err != nil {
		s.logger.ErrorContext(ctx, "webhook encode failed", "type", e.Type, "error", err)
		return
	}
	for _, ep := range s.endpoints {
		if err := s.deliver(ctx, ep, e.Type, body); err != nil {
			s.logger.WarnContext(ctx, "webhook delivery failed", "endpoint", ep, "type", e.Type, "error", err)
		}
	}
}

func (s *Sink) deliver(ctx context.Context, endpoint string, typ core.EventType, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderDelivery, uuid.NewString())
	req.Header.Set(HeaderEvent, string(typ))
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
