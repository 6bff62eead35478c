// Package listen holds the in-memory mirror of the channels kobot listens to.
package listen

import (
	"slices"
	"sync"

	"github.com/edgard/kobot/internal/gateway"
)

// Set is a concurrency-safe set of channel ids. Membership checks share a read
// lock; inserts take the write lock for the single insert only.
type Set struct {
	mu  sync.RWMutex
	ids map[gateway.ChannelID]struct{}
}

// New returns a Set holding ids.
func New(ids ...gateway.ChannelID) *Set {
	s := &Set{ids: make(map[gateway.ChannelID]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id gateway.ChannelID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Add inserts id and reports whether it was not already present.
func (s *Set) Add(id gateway.ChannelID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Len returns the number of channels in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Snapshot returns the members in ascending order.
func (s *Set) Snapshot() []gateway.ChannelID {
	s.mu.RLock()
	out := make([]gateway.ChannelID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	s.mu.RUnlock()
	slices.Sort(out)
	return out
}
