package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"rankkit/adapters/memory"
	"rankkit/core"
	"rankkit/engine"
)

// Store persists the entire ranking state to a single JSON file.
// Reads are served from memory; every mutation rewrites the file.
// Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	mem  *memory.Store
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("jsonfile: path cannot be empty")
	}
	s := &Store{path: path, mem: memory.New()}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var st memory.State
	if err := json.Unmarshal(b, &st); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	s.mem.Restore(st)
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	b, err := json.MarshalIndent(s.mem.Dump(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// mutate applies fn and rewrites the file. When the write fails the in-memory state is
// rolled back, so memory never holds a change the file does not.
func (s *Store) mutate(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.mem.Dump()
	if err := fn(); err != nil {
		return err
	}
	if err := s.persist(); err != nil {
		s.mem.Restore(prev)
		return fmt.Errorf("failed to persist %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) Exec(ctx context.Context, ops ...engine.Op) error {
	if len(ops) == 0 {
		return nil
	}
	return s.mutate(func() error { return s.mem.Exec(ctx, ops...) })
}

func (s *Store) TrimIndex(ctx context.Context, key, dataKey string, keep int64) ([]string, error) {
	var removed []string
	err := s.mutate(func() error {
		var err error
		removed, err = s.mem.TrimIndex(ctx, key, dataKey, keep)
		return err
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Store) PositionDesc(ctx context.Context, key, member string) (int64, bool, error) {
	return s.mem.PositionDesc(ctx, key, member)
}

func (s *Store) ScoreOf(ctx context.Context, key, member string) (float64, bool, error) {
	return s.mem.ScoreOf(ctx, key, member)
}

func (s *Store) RangeDesc(ctx context.Context, key string, start, stop int64) ([]core.Member, error) {
	return s.mem.RangeDesc(ctx, key, start, stop)
}

func (s *Store) MapGetMany(ctx context.Context, key string, fields []string) (map[string][]byte, error) {
	return s.mem.MapGetMany(ctx, key, fields)
}

func (s *Store) MapGet(ctx context.Context, key, field string) ([]byte, bool, error) {
	return s.mem.MapGet(ctx, key, field)
}

func (s *Store) MapSet(ctx context.Context, key, field string, value []byte) error {
	return s.mutate(func() error { return s.mem.MapSet(ctx, key, field, value) })
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.mem.Get(ctx, key)
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.mutate(func() error { return s.mem.Put(ctx, key, value) })
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.mutate(func() error { return s.mem.Delete(ctx, keys...) })
}

func (s *Store) Ping(context.Context) error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

var _ engine.RankingStore = (*Store)(nil)
