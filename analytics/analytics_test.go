package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankkit/adapters/memory"
	"rankkit/core"
	"rankkit/engine"
)

func TestBoardStats_OnEvent(t *testing.T) {
	stats := NewBoardStats()
	ctx := context.Background()
	now := time.Now().UTC()

	stats.OnEvent(ctx, core.NewEntrySet("arena", "", "alice", 10))
	stats.OnEvent(ctx, core.NewEntrySet("arena", "", "alice", 12))
	stats.OnEvent(ctx, core.NewEntrySet("arena", "", "bob", 8))
	stats.OnEvent(ctx, core.NewEntryEvicted("arena", "", "bob", 2))
	stats.OnEvent(ctx, core.NewOrphanRepaired("arena", "", "ghost"))
	stats.OnEvent(ctx, core.NewSnapshotSaved("arena", "", 2))
	stats.OnEvent(ctx, core.NewEntryDeleted("weekly", "w1", "carol"))

	day := stats.Day("arena", now.Format("2006-01-02"))
	assert.Equal(t, DayStats{
		ActiveParticipants: 2,
		Writes:             3,
		Evictions:          1,
		Trimmed:            2,
		OrphansRepaired:    1,
		Snapshots:          1,
	}, day)

	assert.Equal(t, int64(1), stats.Day("weekly", now.Format("2006-01-02")).Deletes)
	assert.Equal(t, DayStats{}, stats.Day("arena", "1999-01-01"))
	assert.ElementsMatch(t, []string{"arena", "weekly"}, stats.Boards())
}

func TestBridgeHook_FansOut(t *testing.T) {
	var a, b int
	bridge := NewBridge(
		HookFunc(func(context.Context, core.Event) { a++ }),
		HookFunc(func(context.Context, core.Event) { b++ }),
	)
	bridge.OnEvent(context.Background(), core.NewBoardCleaned("arena", ""))
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestRecorder_CountsEvents(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec := NewRecorder(WithRegisterer(registry), WithNamespace("test"))
	ctx := context.Background()

	rec.OnEvent(ctx, core.NewEntrySet("arena", "", "a", 1))
	rec.OnEvent(ctx, core.NewEntrySet("arena", "", "b", 2))
	rec.OnEvent(ctx, core.NewEntryEvicted("arena", "", "c", 3))

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.events.WithLabelValues("arena", string(core.EventEntrySet))))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.events.WithLabelValues("arena", string(core.EventEntryEvicted))))
	assert.Equal(t, 3.0, testutil.ToFloat64(rec.trimmed.WithLabelValues("arena")))
}

type brokenStore struct{ engine.RankingStore }

func (brokenStore) Ping(context.Context) error { return errors.New("down") }

func TestRecorder_InstrumentedStore(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec := NewRecorder(WithRegisterer(registry), WithBuckets([]float64{0.001, 0.01, 0.1}))
	ctx := context.Background()

	store := rec.Instrument(memory.New())
	require.NoError(t, store.Exec(ctx, engine.UpsertScore("lb:rank", "a", 1)))
	require.Error(t, store.Exec(ctx, engine.UpsertScore("", "a", 1)))
	_, ok, err := store.PositionDesc(ctx, "lb:rank", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = store.RangeDesc(ctx, "lb:rank", 0, -1)
	require.NoError(t, err)
	removed, err := store.TrimIndex(ctx, "lb:rank", "lb:data", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, removed)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.storeOps.WithLabelValues("trim", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.storeOps.WithLabelValues("exec", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.storeOps.WithLabelValues("exec", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.storeOps.WithLabelValues("position", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.storeOps.WithLabelValues("range", "ok")))

	broken := rec.Instrument(brokenStore{memory.New()})
	assert.Error(t, broken.Ping(ctx))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.storeOps.WithLabelValues("ping", "error")))

	count, err := testutil.GatherAndCount(registry, "rankkit_store_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}
