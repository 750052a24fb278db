// Package summary keeps the derived per-room inbox state: last message
// preview, last message timestamp, and unread count. Updates arrive
// from three writers — room-list push frames, explicit clear-unread
// actions, and optimistic sends — and merge field by field so a push
// update for one field is never lost to an unrelated optimistic update
// of another.
package summary

import (
	"sort"
	"sync"
	"time"

	"github.com/rickgao/chat-sync/internal/model"
)

// Cache holds per-room summaries keyed by room id. Entries are created
// lazily on first update.
type Cache struct {
	mu    sync.RWMutex
	rooms map[string]*model.RoomSummary
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		rooms: make(map[string]*model.RoomSummary),
	}
}

// Apply merges a partial update into the stored summary, creating the
// entry if absent. Only non-nil fields overwrite; last writer wins per
// field, not per record. A negative unread count clamps to zero.
func (c *Cache) Apply(update model.RoomUpdate) {
	if update.RoomID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.ensureLocked(update.RoomID)
	if update.Preview != nil {
		s.Preview = *update.Preview
	}
	if update.LastMessageAt != nil {
		s.LastMessageAt = *update.LastMessageAt
	}
	if update.Unread != nil {
		n := *update.Unread
		if n < 0 {
			n = 0
		}
		s.Unread = n
	}
}

// ClearUnread sets a room's unread count to zero. Preview and timestamp
// are left untouched. Clearing an unknown room creates its entry so a
// later partial update cannot resurrect a stale count.
func (c *Cache) ClearUnread(roomID string) {
	if roomID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.ensureLocked(roomID).Unread = 0
}

// OptimisticOnSend records the local echo of an outbound message:
// preview text and a now-timestamp, applied before any server
// acknowledgement. The unread count is not touched. If the send later
// fails the summary is not rolled back; the cache is best-effort UI
// feedback, not a source of truth.
func (c *Cache) OptimisticOnSend(roomID, preview string) {
	if roomID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.ensureLocked(roomID)
	s.Preview = preview
	s.LastMessageAt = time.Now()
}

// Get returns a copy of one room's summary.
func (c *Cache) Get(roomID string) (model.RoomSummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.rooms[roomID]
	if !ok {
		return model.RoomSummary{}, false
	}
	return *s, true
}

// Snapshot returns copies of all summaries, newest activity first.
func (c *Cache) Snapshot() []model.RoomSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.RoomSummary, 0, len(c.rooms))
	for _, s := range c.rooms {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return out
}

// Clear drops every summary. Part of the full session teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms = make(map[string]*model.RoomSummary)
}

// ensureLocked returns the entry for roomID, creating it if absent.
// Caller must hold the write lock.
func (c *Cache) ensureLocked(roomID string) *model.RoomSummary {
	s, ok := c.rooms[roomID]
	if !ok {
		s = &model.RoomSummary{RoomID: roomID}
		c.rooms[roomID] = s
	}
	return s
}
