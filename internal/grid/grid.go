// Package grid provides the in-memory voxel set that gestures draw into.
package grid

import (
	"cmp"
	"slices"
	"sync"
)

// Key identifies one grid cell by column and row.
type Key struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Store is a set of occupied grid cells.
// Shifts replace the whole set at once, so readers never see a half-moved grid.
type Store struct {
	mu    sync.RWMutex
	cells map[Key]struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		cells: make(map[Key]struct{}),
	}
}

// Stamp adds key to the set. It reports whether the cell was newly occupied.
func (s *Store) Stamp(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cells[key]; ok {
		return false
	}
	s.cells[key] = struct{}{}
	return true
}

// ShiftAll moves every cell by (dx, dy).
func (s *Store) ShiftAll(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	shifted := make(map[Key]struct{}, len(s.cells))
	for k := range s.cells {
		shifted[Key{X: k.X + dx, Y: k.Y + dy}] = struct{}{}
	}
	s.cells = shifted
}

// Clear removes every cell.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = make(map[Key]struct{})
}

// Contains reports whether key is occupied.
func (s *Store) Contains(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cells[key]
	return ok
}

// Len returns the number of occupied cells.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cells)
}

// Keys returns a copy of the occupied cells ordered by row, then column.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	keys := make([]Key, 0, len(s.cells))
	for k := range s.cells {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	slices.SortFunc(keys, Compare)
	return keys
}

// Compare orders keys by row, then column.
func Compare(a, b Key) int {
	if c := cmp.Compare(a.Y, b.Y); c != 0 {
		return c
	}
	return cmp.Compare(a.X, b.X)
}
