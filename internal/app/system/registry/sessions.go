package registry

import (
	"sync"
	"time"

	"github.com/dalemusser/splereg/internal/domain/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Source provides the most recent full snapshot, if any.
type Source interface {
	Latest() ([]models.Registration, bool)
}

// Sessions maps reviewer session ids to their caches. An entry expires
// ttl after its last use and the least recently used entry is evicted
// past size. Evicted caches are retired so open streams can reconnect.
type Sessions struct {
	mu       sync.Mutex
	caches   *expirable.LRU[string, *Cache]
	source   Source
	replacer Replacer
}

// NewSessions builds the session registry. src seeds new caches.
func NewSessions(size int, ttl time.Duration, src Source, r Replacer) *Sessions {
	if size <= 0 {
		size = 256
	}
	onEvict := func(_ string, c *Cache) { c.retire() }
	return &Sessions{
		caches:   expirable.NewLRU[string, *Cache](size, onEvict, ttl),
		source:   src,
		replacer: r,
	}
}

// For returns the cache for sessionID, creating and seeding it on first
// use. Each call renews the entry's expiry.
func (s *Sessions) For(sessionID string) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.caches.Get(sessionID); ok && !c.Retired() {
		// Get does not renew the ttl; Add on a present key does.
		s.caches.Add(sessionID, c)
		if !c.Retired() {
			return c
		}
	}

	// An expired entry may still be held until the purge runs. Removing
	// it retires the old cache before the new one takes its key.
	s.caches.Remove(sessionID)

	c := NewCache(s.replacer)
	if s.source != nil {
		if snap, ok := s.source.Latest(); ok {
			c.Apply(snap)
		}
	}
	s.caches.Add(sessionID, c)
	return c
}

// Broadcast applies a snapshot to every live session cache.
func (s *Sessions) Broadcast(snapshot []models.Registration) {
	// Values leaves nil slots for entries that expired but are not yet
	// purged.
	for _, c := range s.caches.Values() {
		if c != nil {
			c.Apply(snapshot)
		}
	}
}

// Drop forgets a session, e.g. on logout.
func (s *Sessions) Drop(sessionID string) {
	s.caches.Remove(sessionID)
}

// Len is the number of live session caches.
func (s *Sessions) Len() int {
	return s.caches.Len()
}
