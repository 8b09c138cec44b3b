package memory

import (
	"context"
	"fmt"
	"sync"

	"rankkit/core"
	"rankkit/engine"
)

// Store is a concurrent in-memory RankingStore. Each batch is applied under a single lock,
// so batches are atomic with respect to every other call.
type Store struct {
	mu      sync.RWMutex
	indexes map[string]*skipList
	maps    map[string]map[string][]byte
	values  map[string][]byte
}

func New() *Store {
	return &Store{
		indexes: map[string]*skipList{},
		maps:    map[string]map[string][]byte{},
		values:  map[string][]byte{},
	}
}

func validateOp(op engine.Op) error {
	if op.Key == "" {
		return fmt.Errorf("op %s: empty key", op.Kind)
	}
	switch op.Kind {
	case engine.OpUpsertScore, engine.OpRemoveMember, engine.OpSetField, engine.OpDeleteField:
		if op.Member == "" {
			return fmt.Errorf("op %s: empty member", op.Kind)
		}
	default:
		return fmt.Errorf("unsupported op kind %d", op.Kind)
	}
	return nil
}

// Exec validates every op before applying any of them.
func (s *Store) Exec(_ context.Context, ops ...engine.Op) error {
	for _, op := range ops {
		if err := validateOp(op); err != nil {
			return fmt.Errorf("failed to exec batch: %w", err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		s.applyLocked(op)
	}
	return nil
}

func (s *Store) applyLocked(op engine.Op) {
	switch op.Kind {
	case engine.OpUpsertScore:
		idx := s.indexes[op.Key]
		if idx == nil {
			idx = newSkipList()
			s.indexes[op.Key] = idx
		}
		idx.Upsert(op.Member, op.Score)
	case engine.OpRemoveMember:
		if idx := s.indexes[op.Key]; idx != nil {
			idx.Remove(op.Member)
			if idx.Len() == 0 {
				delete(s.indexes, op.Key)
			}
		}
	case engine.OpSetField:
		m := s.maps[op.Key]
		if m == nil {
			m = map[string][]byte{}
			s.maps[op.Key] = m
		}
		m[op.Member] = append([]byte(nil), op.Value...)
	case engine.OpDeleteField:
		if m := s.maps[op.Key]; m != nil {
			delete(m, op.Member)
			if len(m) == 0 {
				delete(s.maps, op.Key)
			}
		}
	}
}

// TrimIndex trims the index and drops the removed members' fields under one write lock.
func (s *Store) TrimIndex(_ context.Context, key, dataKey string, keep int64) ([]string, error) {
	if key == "" {
		return nil, fmt.Errorf("failed to trim index: empty key")
	}
	if keep < 0 {
		return nil, fmt.Errorf("failed to trim index %s: negative keep %d", key, keep)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexes[key]
	if idx == nil {
		return nil, nil
	}
	removed := idx.TrimTo(int(keep))
	if idx.Len() == 0 {
		delete(s.indexes, key)
	}
	if m := s.maps[dataKey]; m != nil {
		for _, id := range removed {
			delete(m, id)
		}
		if len(m) == 0 {
			delete(s.maps, dataKey)
		}
	}
	return removed, nil
}

func (s *Store) PositionDesc(_ context.Context, key, member string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexes[key]
	if idx == nil {
		return 0, false, nil
	}
	pos, ok := idx.Position(member)
	return pos, ok, nil
}

func (s *Store) ScoreOf(_ context.Context, key, member string) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexes[key]
	if idx == nil {
		return 0, false, nil
	}
	score, ok := idx.Score(member)
	return score, ok, nil
}

// RangeDesc follows Redis index semantics: negative bounds count from the end.
func (s *Store) RangeDesc(_ context.Context, key string, start, stop int64) ([]core.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexes[key]
	if idx == nil {
		return []core.Member{}, nil
	}
	from, to, ok := normalizeRange(start, stop, idx.Len())
	if !ok {
		return []core.Member{}, nil
	}
	return idx.Range(from, to), nil
}

func normalizeRange(start, stop int64, n int) (int, int, bool) {
	size := int64(n)
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop >= size {
		stop = size - 1
	}
	if start > stop || start >= size {
		return 0, 0, false
	}
	return int(start), int(stop), true
}

func (s *Store) MapGetMany(_ context.Context, key string, fields []string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(fields))
	m := s.maps[key]
	for _, f := range fields {
		if v, ok := m[f]; ok {
			out[f] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (s *Store) MapGet(_ context.Context, key, field string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.maps[key][field]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) MapSet(ctx context.Context, key, field string, value []byte) error {
	return s.Exec(ctx, engine.SetField(key, field, value))
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("failed to put: empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.indexes, k)
		delete(s.maps, k)
		delete(s.values, k)
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

// IndexEntry is the serialisable form of one ranking index member.
type IndexEntry struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// State is a deep copy of everything the store holds.
type State struct {
	Indexes map[string][]IndexEntry      `json:"indexes"`
	Maps    map[string]map[string][]byte `json:"maps"`
	Values  map[string][]byte            `json:"values"`
}

// Dump returns a deep copy of the store contents.
func (s *Store) Dump() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := State{
		Indexes: make(map[string][]IndexEntry, len(s.indexes)),
		Maps:    make(map[string]map[string][]byte, len(s.maps)),
		Values:  make(map[string][]byte, len(s.values)),
	}
	for k, idx := range s.indexes {
		members := idx.Members()
		entries := make([]IndexEntry, len(members))
		for i, m := range members {
			entries[i] = IndexEntry{ID: m.ID, Score: m.Score}
		}
		st.Indexes[k] = entries
	}
	for k, m := range s.maps {
		cp := make(map[string][]byte, len(m))
		for f, v := range m {
			cp[f] = append([]byte(nil), v...)
		}
		st.Maps[k] = cp
	}
	for k, v := range s.values {
		st.Values[k] = append([]byte(nil), v...)
	}
	return st
}

// Restore replaces the store contents with st.
func (s *Store) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexes = make(map[string]*skipList, len(st.Indexes))
	s.maps = make(map[string]map[string][]byte, len(st.Maps))
	s.values = make(map[string][]byte, len(st.Values))
	for k, entries := range st.Indexes {
		idx := newSkipList()
		for _, e := range entries {
			idx.Upsert(e.ID, e.Score)
		}
		s.indexes[k] = idx
	}
	for k, m := range st.Maps {
		cp := make(map[string][]byte, len(m))
		for f, v := range m {
			cp[f] = append([]byte(nil), v...)
		}
		s.maps[k] = cp
	}
	for k, v := range st.Values {
		s.values[k] = append([]byte(nil), v...)
	}
}

var _ engine.RankingStore = (*Store)(nil)
