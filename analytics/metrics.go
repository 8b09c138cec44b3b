package analytics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"rankkit/core"
	"rankkit/engine"
)

// Recorder exports leaderboard events and store latency as Prometheus metrics.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  prometheus.Registerer

	events        *prometheus.CounterVec
	trimmed       *prometheus.CounterVec
	storeOps      *prometheus.CounterVec
	storeDuration *prometheus.HistogramVec
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRegisterer sets the registry metrics are registered on (default prometheus.DefaultRegisterer).
func WithRegisterer(r prometheus.Registerer) RecorderOption {
	return func(rec *Recorder) { rec.registry = r }
}

// WithNamespace sets the metric namespace (default "rankkit").
func WithNamespace(ns string) RecorderOption {
	return func(rec *Recorder) { rec.namespace = ns }
}

// WithBuckets sets the store latency histogram buckets.
func WithBuckets(b []float64) RecorderOption {
	return func(rec *Recorder) { rec.buckets = b }
}

func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		namespace: "rankkit",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(r)
	}
	auto := promauto.With(r.registry)
	r.events = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "leaderboard",
		Name:      "events_total",
		Help:      "Leaderboard events by board and type",
	}, []string{"board", "type"})
	r.trimmed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "leaderboard",
		Name:      "trimmed_entries_total",
		Help:      "Entries removed by capacity trims, besides the evicted id",
	}, []string{"board"})
	r.storeOps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Ranking store calls by operation and outcome",
	}, []string{"op", "outcome"})
	r.storeDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Ranking store call latency",
		Buckets:   r.buckets,
	}, []string{"op"})
	return r
}

func (r *Recorder) OnEvent(_ context.Context, e core.Event) {
	r.events.WithLabelValues(e.Board, string(e.Type)).Inc()
	if e.Type == core.EventEntryEvicted && e.Count > 0 {
		r.trimmed.WithLabelValues(e.Board).Add(float64(e.Count))
	}
}

func (r *Recorder) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.storeOps.WithLabelValues(op, outcome).Inc()
	r.storeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Instrument wraps store so every call is counted and timed.
func (r *Recorder) Instrument(store engine.RankingStore) engine.RankingStore {
	return &instrumentedStore{next: store, rec: r}
}

type instrumentedStore struct {
	next engine.RankingStore
	rec  *Recorder
}

func (s *instrumentedStore) Exec(ctx context.Context, ops ...engine.Op) error {
	start := time.Now()
	err := s.next.Exec(ctx, ops...)
	s.rec.observe("exec", start, err)
	return err
}

func (s *instrumentedStore) TrimIndex(ctx context.Context, key, dataKey string, keep int64) ([]string, error) {
	start := time.Now()
	removed, err := s.next.TrimIndex(ctx, key, dataKey, keep)
	s.rec.observe("trim", start, err)
	return removed, err
}

func (s *instrumentedStore) PositionDesc(ctx context.Context, key, member string) (int64, bool, error) {
	start := time.Now()
	pos, ok, err := s.next.PositionDesc(ctx, key, member)
	s.rec.observe("position", start, err)
	return pos, ok, err
}

func (s *instrumentedStore) ScoreOf(ctx context.Context, key, member string) (float64, bool, error) {
	start := time.Now()
	score, ok, err := s.next.ScoreOf(ctx, key, member)
	s.rec.observe("score", start, err)
	return score, ok, err
}

func (s *instrumentedStore) RangeDesc(ctx context.Context, key string, startPos, stop int64) ([]core.Member, error) {
	start := time.Now()
	members, err := s.next.RangeDesc(ctx, key, startPos, stop)
	s.rec.observe("range", start, err)
	return members, err
}

func (s *instrumentedStore) MapGetMany(ctx context.Context, key string, fields []string) (map[string][]byte, error) {
	start := time.Now()
	out, err := s.next.MapGetMany(ctx, key, fields)
	s.rec.observe("map_get_many", start, err)
	return out, err
}

func (s *instrumentedStore) MapGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	start := time.Now()
	v, ok, err := s.next.MapGet(ctx, key, field)
	s.rec.observe("map_get", start, err)
	return v, ok, err
}

func (s *instrumentedStore) MapSet(ctx context.Context, key, field string, value []byte) error {
	start := time.Now()
	err := s.next.MapSet(ctx, key, field, value)
	s.rec.observe("map_set", start, err)
	return err
}

func (s *instrumentedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	v, ok, err := s.next.Get(ctx, key)
	s.rec.observe("get", start, err)
	return v, ok, err
}

func (s *instrumentedStore) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Put(ctx, key, value)
	s.rec.observe("put", start, err)
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := s.next.Delete(ctx, keys...)
	s.rec.observe("delete", start, err)
	return err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.next.Ping(ctx)
	s.rec.observe("ping", start, err)
	return err
}

var _ engine.RankingStore = (*instrumentedStore)(nil)
