// Package ledger keeps the per-room append-only buffers of live
// messages. The consumer concatenates fetched history pages (oldest
// first) with a room's live buffer to form the displayed sequence; the
// ledger itself never deduplicates against history — the de-dup
// boundary is "clear on room entry".
package ledger

import (
	"sync"

	"github.com/rickgao/chat-sync/internal/model"
)

// Ledger stores live messages per room in receipt order.
type Ledger struct {
	mu    sync.RWMutex
	rooms map[string][]model.Message
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{
		rooms: make(map[string][]model.Message),
	}
}

// Append pushes a message to the tail of its room's buffer. Receipt
// order is preserved, never re-sorted by timestamp; the transport
// guarantees in-order delivery per topic. Blocked messages are appended
// like any other so room continuity stays intact.
func (l *Ledger) Append(roomID string, msg model.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rooms[roomID] = append(l.rooms[roomID], msg)
}

// Messages returns a copy of a room's live buffer in receipt order.
func (l *Ledger) Messages(roomID string) []model.Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	buf, ok := l.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]model.Message, len(buf))
	copy(out, buf)
	return out
}

// Len returns the number of live messages buffered for a room.
func (l *Ledger) Len(roomID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rooms[roomID])
}

// ClearRoom empties one room's buffer. Called when a viewer (re-)enters
// a room, before it fetches history, so the live buffer only ever holds
// messages newer than the fetched pages.
func (l *Ledger) ClearRoom(roomID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rooms, roomID)
}

// Clear empties every room's buffer. Part of the full session teardown.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rooms = make(map[string][]model.Message)
}
