package notifications

import (
	"slices"
	"sync"
)

// State is a copy of a domain's local cache.
type State struct {
	Notifications []Notification
	Unread        int
}

// Store is the local cache of one domain: the last fetched list and the
// unread counter. The counter never goes below zero.
type Store struct {
	mu     sync.RWMutex
	items  []Notification
	unread int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps the cached list for items.
func (s *Store) Replace(items []Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Clone(items)
}

// SetUnread overwrites the counter.
func (s *Store) SetUnread(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unread = max(n, 0)
}

// MarkSeen flips the seen flag of id and decrements the counter. It reports
// whether id was present in the cache.
func (s *Store) MarkSeen(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unread = max(s.unread-1, 0)
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Seen = true
			return true
		}
	}
	return false
}

// MarkAllSeen marks every cached record seen and zeroes the counter.
func (s *Store) MarkAllSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		s.items[i].Seen = true
	}
	s.unread = 0
}

// Get returns the cached record with id.
func (s *Store) Get(id int64) (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.items {
		if n.ID == id {
			return n, true
		}
	}
	return Notification{}, false
}

// Unseen returns the ids of cached records not yet seen, in list order.
func (s *Store) Unseen() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, n := range s.items {
		if !n.Seen {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Unread returns the counter.
func (s *Store) Unread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Snapshot returns a copy of the cache.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Notifications: slices.Clone(s.items),
		Unread:        s.unread,
	}
}
