package model

import "time"

// MessageKind identifies the payload shape of a chat message.
type MessageKind string

const (
	KindText   MessageKind = "TEXT"
	KindImage  MessageKind = "IMAGE"
	KindSystem MessageKind = "SYSTEM"
)

// Valid reports whether k is one of the known message kinds.
func (k MessageKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindSystem:
		return true
	}
	return false
}

// ImagePreview is the inbox preview shown in place of image content.
const ImagePreview = "sent a photo"

// Message is a single chat message. Messages are immutable once created;
// the ledger appends them and never edits them in place.
type Message struct {
	RoomID    string      // Room this message belongs to
	SenderID  string      // Author's user id
	Content   string      // Text body, or caption for images
	ImageURL  string      // Image reference (KindImage only)
	Kind      MessageKind // TEXT, IMAGE, or SYSTEM
	Blocked   bool        // Content withheld for policy reasons; still counted
	Mine      bool        // SenderID matches the session's user id
	CreatedAt time.Time   // Server creation time
}

// Preview returns the inbox preview text for this message.
func (m Message) Preview() string {
	if m.Kind == KindImage {
		return ImagePreview
	}
	return m.Content
}

// RoomSummary is the derived per-room "inbox row" state.
type RoomSummary struct {
	RoomID        string    // Room id (primary key in the cache)
	Preview       string    // Last message preview text
	LastMessageAt time.Time // Last message timestamp
	Unread        int       // Unread count, never negative
}

// RoomUpdate is a partial update to a RoomSummary. Nil fields leave the
// stored value untouched; the cache merges field by field.
type RoomUpdate struct {
	RoomID        string
	Preview       *string
	LastMessageAt *time.Time
	Unread        *int
}
