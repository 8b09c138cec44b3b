package memory

import "testing"

func TestSkipListOrdering(t *testing.T) {
	s := newSkipList()
	s.Upsert("a", 10)
	s.Upsert("b", 20)
	s.Upsert("c", 15)
	top := s.Range(0, 2)
	if len(top) != 3 || top[0].ID != "b" || top[1].ID != "c" || top[2].ID != "a" {
		t.Fatalf("unexpected order: %#v", top)
	}
	s.Upsert("a", 25)
	if pos, ok := s.Position("a"); !ok || pos != 0 {
		t.Fatalf("a should lead, got pos=%d ok=%v", pos, ok)
	}
}

func TestSkipListTieBreakDescendingID(t *testing.T) {
	s := newSkipList()
	s.Upsert("alice", 5)
	s.Upsert("carol", 5)
	s.Upsert("bob", 5)
	got := s.Members()
	if got[0].ID != "carol" || got[1].ID != "bob" || got[2].ID != "alice" {
		t.Fatalf("unexpected tie order: %#v", got)
	}
}

func TestSkipListTrimTo(t *testing.T) {
	s := newSkipList()
	for i, id := range []string{"a", "b", "c", "d"} {
		s.Upsert(id, float64(i+1))
	}
	removed := s.TrimTo(2)
	if len(removed) != 2 || removed[0] != "b" || removed[1] != "a" {
		t.Fatalf("unexpected removed ids: %v", removed)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 left, got %d", s.Len())
	}
	if again := s.TrimTo(2); len(again) != 0 {
		t.Fatalf("second trim should be a no-op, removed %v", again)
	}
	if !s.Remove("d") || s.Remove("d") {
		t.Fatal("remove should report presence once")
	}
}
