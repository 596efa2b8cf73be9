// Package store holds the in-memory Entry Store: the working set the journal
// reads, plus the unread filter. It performs no I/O and is only mutated with
// results the backend has confirmed.
package store

import (
	"sort"
	"sync"

	"github.com/Racej255/CrosslandApocalypse/internal/client/models"
)

type Store struct {
	mu           sync.RWMutex
	entries      map[string]models.Entry
	filterUnread bool
}

func New() *Store {
	return &Store{entries: make(map[string]models.Entry)}
}

// Replace swaps the whole working set. Later duplicates of an id win.
func (s *Store) Replace(entries []models.Entry) {
	m := make(map[string]models.Entry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = m
}

// Put inserts or replaces the entry with e.ID.
func (s *Store) Put(e models.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
}

// Remove deletes id and reports whether it was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

func (s *Store) Get(id string) (models.Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Entries returns a snapshot of every entry in navigation order.
func (s *Store) Entries() []models.Entry {
	return s.NavigationOrder()
}

func (s *Store) FilterUnread() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filterUnread
}

func (s *Store) SetFilterUnread(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterUnread = on
}

// ToggleFilterUnread flips the filter and returns the new value.
func (s *Store) ToggleFilterUnread() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterUnread = !s.filterUnread
	return s.filterUnread
}

// VisibleEntries returns every entry, or only unread ones while the filter
// is on, in navigation order.
func (s *Store) VisibleEntries() []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if s.filterUnread && e.Read {
			continue
		}
		out = append(out, e)
	}
	sortNavigation(out)
	return out
}

// NavigationOrder returns all entries sorted by date, then title, then id.
// The filter does not apply.
func (s *Store) NavigationOrder() []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sortNavigation(out)
	return out
}

// Neighbors returns the entries before and after id in navigation order.
// ok is false when id is not in the store.
func (s *Store) Neighbors(id string) (prev, next *models.Entry, ok bool) {
	order := s.NavigationOrder()
	for i := range order {
		if order[i].ID != id {
			continue
		}
		if i > 0 {
			p := order[i-1]
			prev = &p
		}
		if i+1 < len(order) {
			n := order[i+1]
			next = &n
		}
		return prev, next, true
	}
	return nil, nil, false
}

// ISO dates order lexicographically. The id tiebreak keeps the order total.
func sortNavigation(entries []models.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
}
