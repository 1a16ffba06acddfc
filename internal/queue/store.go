package queue

import (
	"sort"
	"sync"

	"github.com/ytqueue/ytqueue/internal/model"
)

// Store holds the ordered item sequence plus a parallel URL set for O(1)
// duplicate rejection. Insertion order is preserved and is the default
// dispatch order. All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []*model.Item
	known map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		known: make(map[string]struct{}),
	}
}

// Add appends the item unless its URL is already known. Returns false on a
// duplicate; the caller treats that as a silent no-op.
func (s *Store) Add(item *model.Item) bool {
	if item == nil || item.URL == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.known[item.URL]; exists {
		return false
	}
	s.known[item.URL] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// AddAll adds every item in order and returns how many were actually
// inserted (duplicates are dropped).
func (s *Store) AddAll(items []*model.Item) int {
	added := 0
	for _, it := range items {
		if s.Add(it) {
			added++
		}
	}
	return added
}

// Remove deletes items by position. Out-of-range and repeated indices are
// ignored; callers validate positions against Len before invoking. The URL
// set and the sequence are updated together under one lock.
func (s *Store) Remove(indices []int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	removed := 0
	prev := -1
	for _, idx := range sorted {
		if idx == prev || idx < 0 || idx >= len(s.items) {
			continue
		}
		prev = idx
		delete(s.known, s.items[idx].URL)
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		removed++
	}
	return removed
}

// Clear drops all items and the URL set together.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.known = make(map[string]struct{})
}

// Len returns the number of items in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Items returns a snapshot of the sequence in order. The slice is a copy;
// the item pointers are shared, matching the single-writer discipline the
// orchestrator follows when advancing statuses.
func (s *Store) Items() []*model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Contains reports whether the URL is already in the store.
func (s *Store) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.known[url]
	return ok
}

// SetSelected flips the selection flag on the item at the given position.
// Returns false for out-of-range positions.
func (s *Store) SetSelected(index int, selected bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.items) {
		return false
	}
	s.items[index].Selected = selected
	return true
}

// SelectedItems returns the selected items in sequence order.
func (s *Store) SelectedItems() []*model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Item, 0, len(s.items))
	for _, it := range s.items {
		if it.Selected {
			out = append(out, it)
		}
	}
	return out
}

// URLs returns every item URL in sequence order.
func (s *Store) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.items))
	for i, it := range s.items {
		out[i] = it.URL
	}
	return out
}
