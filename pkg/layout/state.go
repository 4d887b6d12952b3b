package layout

import (
	"fmt"
	"sort"
	"sync"
)

// LayoutState is the mutable layout of one pass: the systems, the
// measure-to-system index and the caches derived from rendering.
//
// A LayoutState is owned by a single reconciliation loop. Its methods are
// safe for concurrent use so an HTTP handler may read a snapshot while a pass
// runs, but only the owner mutates it.
type LayoutState struct {
	mu sync.RWMutex

	total       int   // measure count of the document
	target      int   // initial measures per system
	pieceStarts []int // sequential numbers that begin a new piece
	opts        Options

	systems         []System
	measureToSystem map[int]int

	generation string
	caches     []invalidator
}

func newState(total, target int, pieceStarts []int, opts Options) *LayoutState {
	return &LayoutState{
		total:           total,
		target:          target,
		pieceStarts:     pieceStarts,
		opts:            opts,
		measureToSystem: make(map[int]int, total),
	}
}

// Target returns the initial measures-per-system size.
func (s *LayoutState) Target() int { return s.target }

// MeasureCount returns the number of measures in the document.
func (s *LayoutState) MeasureCount() int { return s.total }

// PieceStarts returns the sequential measure numbers that begin a new piece.
func (s *LayoutState) PieceStarts() []int {
	return append([]int(nil), s.pieceStarts...)
}

// Len returns the number of systems.
func (s *LayoutState) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.systems)
}

// System returns a copy of the system at index.
func (s *LayoutState) System(index int) (System, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.systems) {
		return System{}, false
	}
	return s.systems[index].clone(), true
}

// Systems returns a copy of all systems.
func (s *LayoutState) Systems() []System {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]System, len(s.systems))
	for i, sys := range s.systems {
		out[i] = sys.clone()
	}
	return out
}

// Sizes returns the measure count of every system.
func (s *LayoutState) Sizes() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int, len(s.systems))
	for i, sys := range s.systems {
		out[i] = len(sys.Measures)
	}
	return out
}

// SystemOf returns the index of the system holding measure.
func (s *LayoutState) SystemOf(measure int) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.measureToSystem[measure]
	return i, ok
}

// PieceEnd returns the last measure of the piece that holds measure.
func (s *LayoutState) PieceEnd(measure int) int {
	p := pieceOf(s.pieceStarts, measure)
	if p < len(s.pieceStarts) {
		return s.pieceStarts[p] - 1
	}
	return s.total
}

// isBoundaryMeasure reports whether measure is the last one before a reset.
func (s *LayoutState) isBoundaryMeasure(measure int) bool {
	for _, st := range s.pieceStarts {
		if st-1 == measure {
			return true
		}
	}
	return false
}

func (s *LayoutState) isPieceStart(measure int) bool {
	for _, st := range s.pieceStarts {
		if st == measure {
			return true
		}
	}
	return false
}

// reindex renumbers systems, refreshes the piece flags and rebuilds the
// measure index. Callers hold mu.
func (s *LayoutState) reindex() {
	clear(s.measureToSystem)
	for i := range s.systems {
		s.systems[i].Index = i
		s.systems[i].NewPiece = s.isPieceStart(s.systems[i].StartMeasure())
		for _, m := range s.systems[i].Measures {
			s.measureToSystem[m] = i
		}
	}
}

// =============================================================================
// Invariants
// =============================================================================

// CheckInvariants verifies that every measure of the document belongs to
// exactly one system, that no system is empty, that system indices are
// contiguous and that the measure index agrees with the systems.
func (s *LayoutState) CheckInvariants() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int]int, s.total)
	for i, sys := range s.systems {
		if sys.Index != i {
			return fmt.Errorf("system at position %d has index %d", i, sys.Index)
		}
		if len(sys.Measures) == 0 {
			return fmt.Errorf("system %d is empty", i)
		}
		for _, m := range sys.Measures {
			if prev, dup := seen[m]; dup {
				return fmt.Errorf("measure %d is in systems %d and %d", m, prev, i)
			}
			seen[m] = i
			if got, ok := s.measureToSystem[m]; !ok || got != i {
				return fmt.Errorf("measure %d maps to system %d, held by %d", m, got, i)
			}
		}
	}
	if len(seen) != s.total {
		var missing []int
		for m := 1; m <= s.total; m++ {
			if _, ok := seen[m]; !ok {
				missing = append(missing, m)
			}
		}
		sort.Ints(missing)
		return fmt.Errorf("%d measures are not in any system: %v", len(missing), missing)
	}
	if len(s.measureToSystem) != s.total {
		return fmt.Errorf("measure index has %d entries, want %d", len(s.measureToSystem), s.total)
	}
	return nil
}

// =============================================================================
// Generations and caches
// =============================================================================

// Begin starts a new pass with the given generation id and clears every
// cache. Writes tagged with an older generation are dropped from now on.
func (s *LayoutState) Begin(generation string) {
	s.mu.Lock()
	s.generation = generation
	caches := s.caches
	s.mu.Unlock()
	for _, c := range caches {
		c.invalidateFrom(0)
	}
}

// Generation returns the id of the current pass.
func (s *LayoutState) Generation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// InvalidateFrom drops cached data for the system at index and every later
// system. Call it after an adjustment touched index.
func (s *LayoutState) InvalidateFrom(index int) {
	s.mu.RLock()
	caches := s.caches
	s.mu.RUnlock()
	for _, c := range caches {
		c.invalidateFrom(index)
	}
}

type invalidator interface {
	invalidateFrom(index int)
}

// IndexCache holds one value per system index for a LayoutState.
type IndexCache[T any] struct {
	state   *LayoutState
	mu      sync.RWMutex
	entries map[int]T
}

// NewIndexCache creates a cache bound to state. It is cleared by
// [LayoutState.Begin] and [LayoutState.InvalidateFrom].
func NewIndexCache[T any](state *LayoutState) *IndexCache[T] {
	c := &IndexCache[T]{state: state, entries: make(map[int]T)}
	state.mu.Lock()
	state.caches = append(state.caches, c)
	state.mu.Unlock()
	return c
}

// Put stores v for index if generation is still current. It reports whether
// the value was stored.
func (c *IndexCache[T]) Put(generation string, index int, v T) bool {
	if generation != c.state.Generation() {
		return false
	}
	c.mu.Lock()
	c.entries[index] = v
	c.mu.Unlock()
	return true
}

// Get returns the value cached for index.
func (c *IndexCache[T]) Get(index int) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[index]
	return v, ok
}

// Len returns the number of cached entries.
func (c *IndexCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *IndexCache[T]) invalidateFrom(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if k >= index {
			delete(c.entries, k)
		}
	}
}
