package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rankkit/engine"
)

func TestStore_ExecAndQueries(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Exec(ctx,
		engine.UpsertScore("lb:rank", "a", 10),
		engine.UpsertScore("lb:rank", "b", 30),
		engine.UpsertScore("lb:rank", "c", 20),
		engine.SetField("lb:data", "a", []byte(`"A"`)),
		engine.SetField("lb:data", "b", []byte(`"B"`)),
	))

	pos, ok, err := s.PositionDesc(ctx, "lb:rank", "c")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), pos)

	_, ok, err = s.PositionDesc(ctx, "lb:rank", "zzz")
	require.NoError(t, err)
	assert.False(t, ok)

	members, err := s.RangeDesc(ctx, "lb:rank", 0, -1)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "b", members[0].ID)
	assert.Equal(t, 30.0, members[0].Score)

	got, err := s.MapGetMany(ctx, "lb:data", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, `"A"`, string(got["a"]))

	score, ok, err := s.ScoreOf(ctx, "lb:rank", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 10.0, score)
}

func TestStore_ExecIsAllOrNothing(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Exec(ctx,
		engine.UpsertScore("lb:rank", "a", 10),
		engine.Op{Kind: engine.OpKind(42), Key: "lb:rank"},
	)
	require.Error(t, err)

	_, ok, err := s.PositionDesc(ctx, "lb:rank", "a")
	require.NoError(t, err)
	assert.False(t, ok, "no op of a rejected batch may be applied")
}

func TestStore_TrimIndex(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Exec(ctx,
			engine.UpsertScore("k", id, float64(i+1)),
			engine.SetField("k:data", id, []byte(`"`+id+`"`)),
		))
	}
	removed, err := s.TrimIndex(ctx, "k", "k:data", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, removed)

	removed, err = s.TrimIndex(ctx, "k", "k:data", 3)
	require.NoError(t, err)
	assert.Empty(t, removed)

	members, err := s.RangeDesc(ctx, "k", 0, -1)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, "d", members[0].ID)
	assert.Equal(t, "b", members[2].ID)

	_, ok, err := s.MapGet(ctx, "k:data", "a")
	require.NoError(t, err)
	assert.False(t, ok, "trimmed member's field is deleted with it")
	_, ok, err = s.MapGet(ctx, "k:data", "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_TrimIndexRejectsBadInput(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, err := s.TrimIndex(ctx, "", "d", 1)
	require.Error(t, err)
	_, err = s.TrimIndex(ctx, "k", "d", -1)
	require.Error(t, err)

	removed, err := s.TrimIndex(ctx, "missing", "d", 0)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestStore_RangeBounds(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx, engine.UpsertScore("k", "a", 1), engine.UpsertScore("k", "b", 2)))

	members, err := s.RangeDesc(ctx, "k", 1, 100)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "a", members[0].ID)

	members, err = s.RangeDesc(ctx, "k", 5, 10)
	require.NoError(t, err)
	assert.Empty(t, members)

	members, err = s.RangeDesc(ctx, "missing", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestStore_ScalarsAndDelete(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "lb:all", []byte("[]")))
	require.NoError(t, s.MapSet(ctx, "lb:archive", "s1", []byte("[1]")))
	require.NoError(t, s.Exec(ctx, engine.UpsertScore("lb:rank", "a", 1)))

	v, ok, err := s.Get(ctx, "lb:all")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(v))

	v, ok, err = s.MapGet(ctx, "lb:archive", "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[1]", string(v))

	require.NoError(t, s.Delete(ctx, "lb:all", "lb:rank"))
	_, ok, _ = s.Get(ctx, "lb:all")
	assert.False(t, ok)
	_, ok, _ = s.PositionDesc(ctx, "lb:rank", "a")
	assert.False(t, ok)
	_, ok, _ = s.MapGet(ctx, "lb:archive", "s1")
	assert.True(t, ok, "untouched keys survive")
}

func TestStore_DumpRestore(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx,
		engine.UpsertScore("k", "a", 1),
		engine.UpsertScore("k", "b", 2),
		engine.SetField("d", "a", []byte("x")),
	))
	require.NoError(t, s.Put(ctx, "v", []byte("y")))

	restored := New()
	restored.Restore(s.Dump())

	members, err := restored.RangeDesc(ctx, "k", 0, -1)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "b", members[0].ID)
	v, ok, _ := restored.MapGet(ctx, "d", "a")
	assert.True(t, ok)
	assert.Equal(t, "x", string(v))
	v, ok, _ = restored.Get(ctx, "v")
	assert.True(t, ok)
	assert.Equal(t, "y", string(v))
}
