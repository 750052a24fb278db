package router

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rickgao/chat-sync/internal/model"
)

// Errors
var (
	ErrUnknownDestination = errors.New("unknown destination")
	ErrMissingDestination = errors.New("frame has no destination")
)

// Well-known destinations. Room topics are per-room; the queue
// destinations are account-wide and bound once per connection.
const (
	RoomTopicPrefix = "/topic/chat.room."
	RoomListTopic   = "/user/queue/chat.rooms"
	ErrorsTopic     = "/user/queue/chat.errors"
	SendDestination = "/app/chat.send"
)

// RoomTopic returns the per-room topic for a room id.
func RoomTopic(roomID string) string {
	return RoomTopicPrefix + roomID
}

// RoomIDFromTopic extracts the room id from a per-room topic.
func RoomIDFromTopic(topic string) (string, bool) {
	if !strings.HasPrefix(topic, RoomTopicPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(topic, RoomTopicPrefix)
	return id, id != ""
}

// Frame is the decoded form of one inbound data frame. Exactly one of
// the concrete types below implements it; dispatch is an exhaustive
// type switch, never string comparison in handlers.
type Frame interface {
	frame()
}

// RoomMessageFrame is a chat message delivered on a per-room topic.
type RoomMessageFrame struct {
	Message    model.Message
	ReceivedAt time.Time
}

// RoomListFrame is a partial room-summary update on the room-list topic.
type RoomListFrame struct {
	Update     model.RoomUpdate
	ReceivedAt time.Time
}

// ErrorFrame is a server-pushed application error on the errors topic.
// It is surfaced as a transient notice and never mutates engine state.
type ErrorFrame struct {
	Notice     string
	ReceivedAt time.Time
}

func (RoomMessageFrame) frame() {}
func (RoomListFrame) frame()    {}
func (ErrorFrame) frame()       {}

// Command is a client-to-server control command (subscribe/unsubscribe).
type Command struct {
	ID          int64  `json:"id"`
	Cmd         string `json:"cmd"` // "subscribe" or "unsubscribe"
	Destination string `json:"destination"`
}

// Ack is a server response to a control command.
type Ack struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"` // "subscribed", "unsubscribed", "error"
	Body json.RawMessage `json:"body"`
}

// AckError is the body of a failed command ack.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendEnvelope is the payload of an outbound chat message. The id is
// assigned client-side so the server can dedupe retransmits.
type SendEnvelope struct {
	ID          string `json:"id"`
	RoomID      string `json:"roomId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Publication is an outbound application frame addressed to a send
// destination.
type Publication struct {
	Destination string       `json:"destination"`
	Body        SendEnvelope `json:"body"`
}

// Wire types for JSON parsing

// frameEnvelope is used for destination extraction before payload decode.
type frameEnvelope struct {
	Destination string          `json:"destination"`
	Body        json.RawMessage `json:"body"`
}

// messageWire is the wire format for per-room message payloads.
type messageWire struct {
	RoomID      string `json:"roomId"`
	SenderID    string `json:"senderId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"` // "TEXT", "IMAGE", "SYSTEM"
	ImageURL    string `json:"imageUrl"`
	Blocked     bool   `json:"blocked"`
	CreatedAt   string `json:"createdAt"` // RFC 3339
}

// roomUpdateWire is the wire format for room-list payloads. All fields
// except roomId are optional; absent fields must not clobber stored state.
type roomUpdateWire struct {
	RoomID        string  `json:"roomId"`
	Preview       *string `json:"preview"`
	LastMessageAt *string `json:"lastMessageAt"` // RFC 3339
	Unread        *int    `json:"unreadCount"`
}

// errorWire is the wire format for errors-topic payloads.
type errorWire struct {
	Message string `json:"message"`
}
