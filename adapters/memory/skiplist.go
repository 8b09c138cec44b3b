package memory

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"

	"rankkit/core"
)

// A skip list keyed by (score desc, id desc), the order Redis uses for ZREVRANGE.
// Not safe for concurrent use; Store serialises access.

const maxLevel = 16
const pFactor = 0.25

type node struct {
	m    core.Member
	next [maxLevel]*node
}

type skipList struct {
	head *node
	lvl  int
	byID map[string]*node
	rng  *rand.Rand
}

func newSkipList() *skipList {
	var seed [16]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		seed = [16]byte{}
	}
	return &skipList{
		head: &node{},
		lvl:  1,
		byID: map[string]*node{},
		rng:  rand.New(rand.NewPCG(binary.BigEndian.Uint64(seed[:8]), binary.BigEndian.Uint64(seed[8:]))),
	}
}

func (s *skipList) randomLevel() int {
	lvl := 1
	for lvl < maxLevel && s.rng.Float64() < pFactor {
		lvl++
	}
	return lvl
}

// before reports whether a sorts ahead of b.
func before(a, b core.Member) bool {
	if a.Score == b.Score {
		return a.ID > b.ID
	}
	return a.Score > b.Score
}

func (s *skipList) Len() int { return len(s.byID) }

// Upsert inserts id or moves it to its new score.
func (s *skipList) Upsert(id string, score float64) {
	if old, ok := s.byID[id]; ok {
		if old.m.Score == score {
			return
		}
		s.remove(old.m)
	}
	m := core.Member{ID: id, Score: score}
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && before(cur.next[i].m, m) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	lvl := s.randomLevel()
	if lvl > s.lvl {
		for i := s.lvl; i < lvl; i++ {
			update[i] = s.head
		}
		s.lvl = lvl
	}
	n := &node{m: m}
	for i := 0; i < lvl; i++ {
		n.next[i] = update[i].next[i]
		update[i].next[i] = n
	}
	s.byID[id] = n
}

// Remove deletes id and reports whether it was present.
func (s *skipList) Remove(id string) bool {
	n, ok := s.byID[id]
	if !ok {
		return false
	}
	s.remove(n.m)
	return true
}

func (s *skipList) remove(m core.Member) {
	update := [maxLevel]*node{}
	cur := s.head
	for i := s.lvl - 1; i >= 0; i-- {
		for cur.next[i] != nil && before(cur.next[i].m, m) {
			cur = cur.next[i]
		}
		update[i] = cur
	}
	target := update[0].next[0]
	if target == nil || target.m.ID != m.ID {
		return
	}
	for i := 0; i < s.lvl; i++ {
		if update[i].next[i] == target {
			update[i].next[i] = target.next[i]
		}
	}
	delete(s.byID, m.ID)
	for s.lvl > 1 && s.head.next[s.lvl-1] == nil {
		s.lvl--
	}
}

// Position returns the zero-based position of id.
func (s *skipList) Position(id string) (int64, bool) {
	if _, ok := s.byID[id]; !ok {
		return 0, false
	}
	var pos int64
	for cur := s.head.next[0]; cur != nil; cur = cur.next[0] {
		if cur.m.ID == id {
			return pos, true
		}
		pos++
	}
	return 0, false
}

func (s *skipList) Score(id string) (float64, bool) {
	n, ok := s.byID[id]
	if !ok {
		return 0, false
	}
	return n.m.Score, true
}

// Range returns members at positions [start, stop] inclusive; both bounds must already be normalised.
func (s *skipList) Range(start, stop int) []core.Member {
	if start > stop {
		return nil
	}
	out := make([]core.Member, 0, stop-start+1)
	i := 0
	for cur := s.head.next[0]; cur != nil && i <= stop; cur = cur.next[0] {
		if i >= start {
			out = append(out, cur.m)
		}
		i++
	}
	return out
}

// TrimTo keeps the first keep members and returns the ids it removed.
func (s *skipList) TrimTo(keep int) []string {
	if keep < 0 {
		keep = 0
	}
	if s.Len() <= keep {
		return nil
	}
	tail := s.Range(keep, s.Len()-1)
	removed := make([]string, 0, len(tail))
	for _, m := range tail {
		s.remove(m)
		removed = append(removed, m.ID)
	}
	return removed
}

// Members returns every member in order.
func (s *skipList) Members() []core.Member {
	return s.Range(0, s.Len()-1)
}
