// Package registry holds the reviewer-side view of all registrations:
// a session-scoped cache fed by full snapshots, plus the pure filter
// and statistics computed over it.
package registry

import (
	"sync"

	"github.com/dalemusser/splereg/internal/domain/models"
)

// Replacer decides how a new snapshot is folded into the cached list.
type Replacer interface {
	Replace(current, snapshot []models.Registration) []models.Registration
}

// FullReplace discards the current list and keeps a private copy of
// the snapshot.
type FullReplace struct{}

// Replace implements Replacer.
func (FullReplace) Replace(_, snapshot []models.Registration) []models.Registration {
	return cloneList(snapshot)
}

// Cache is one reviewer session's copy of the registrations plus the id
// of the record open in the editor. It is safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	items     []models.Registration
	loaded    bool
	version   uint64
	editingID string
	changed   chan struct{}
	replacer  Replacer

	done       chan struct{}
	retireOnce sync.Once
}

// NewCache returns an empty cache. A nil replacer means FullReplace.
func NewCache(r Replacer) *Cache {
	if r == nil {
		r = FullReplace{}
	}
	return &Cache{replacer: r, changed: make(chan struct{}), done: make(chan struct{})}
}

// Done is closed once the cache has left its session registry. A
// retired cache no longer receives snapshots.
func (c *Cache) Done() <-chan struct{} {
	return c.done
}

// Retired reports whether Done is closed.
func (c *Cache) Retired() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Cache) retire() {
	c.retireOnce.Do(func() { close(c.done) })
}

// Apply folds a snapshot into the cache and wakes waiters on Changed.
func (c *Cache) Apply(snapshot []models.Registration) {
	c.mu.Lock()
	c.items = c.replacer.Replace(c.items, snapshot)
	c.loaded = true
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()
}

// Snapshot returns a copy of the cached list in cache order.
func (c *Cache) Snapshot() []models.Registration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneList(c.items)
}

// Loaded reports whether at least one snapshot has been applied.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Version increases on every Apply.
func (c *Cache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Changed returns a channel closed at the next Apply.
func (c *Cache) Changed() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.changed
}

// Get returns a copy of the cached record with the given hex id.
func (c *Cache) Get(id string) (models.Registration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.items {
		if r.ID.Hex() == id {
			return cloneOne(r), true
		}
	}
	return models.Registration{}, false
}

// SetAttachments replaces the cached attachment list of one record so
// the editor reflects a write before the next snapshot arrives.
func (c *Cache) SetAttachments(id string, atts []models.Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID.Hex() == id {
			c.items[i].Attachments = append([]models.Attachment(nil), atts...)
			return
		}
	}
}

// SetEditing records which record the editor has open.
func (c *Cache) SetEditing(id string) {
	c.mu.Lock()
	c.editingID = id
	c.mu.Unlock()
}

// Editing returns the id set by SetEditing.
func (c *Cache) Editing() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.editingID
}

func cloneList(in []models.Registration) []models.Registration {
	out := make([]models.Registration, len(in))
	for i, r := range in {
		out[i] = cloneOne(r)
	}
	return out
}

func cloneOne(r models.Registration) models.Registration {
	if r.Attachments != nil {
		r.Attachments = append([]models.Attachment(nil), r.Attachments...)
	}
	if r.Signature != nil {
		sig := *r.Signature
		r.Signature = &sig
	}
	return r
}
