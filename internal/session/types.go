package session

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected     = errors.New("not connected")
	ErrSessionClosed    = errors.New("session closed")
	ErrSubscribeTimeout = errors.New("subscribe timeout")
	ErrInvalidKind      = errors.New("invalid outbound message kind")
	ErrRateLimited      = errors.New("send rate limit exceeded")
)

// RoomState is the per-room view lifecycle state.
type RoomState string

const (
	// StateClosed means no view is open for the room.
	StateClosed RoomState = "closed"
	// StateSubscribing means a view has entered the room but the topic
	// binding is not established yet (possibly waiting for the
	// connection to become active).
	StateSubscribing RoomState = "subscribing"
	// StateActive means the room topic is bound and live messages flow
	// into the ledger.
	StateActive RoomState = "active"
)

// Notice is a server-pushed application error, surfaced to the UI as a
// transient, dismissible banner. Notices never mutate engine state.
type Notice struct {
	Message    string
	ReceivedAt time.Time
}

// Config configures a Session.
type Config struct {
	ReconnectDelay   time.Duration // Fixed wait before reconnecting after an unplanned drop
	SubscribeTimeout time.Duration // Max wait for a subscribe/unsubscribe ack
	PingInterval     time.Duration // Transport keepalive cadence
	PingTimeout      time.Duration // Max transport silence before stale
	WriteTimeout     time.Duration // Transport write deadline
	FrameBuffer      int           // Transport inbound frame channel size
	NoticeBuffer     int           // Error notice queue initial capacity
	SendRate         float64       // Sustained outbound messages per second
	SendBurst        int           // Outbound burst allowance
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:   3 * time.Second,
		SubscribeTimeout: 10 * time.Second,
		PingInterval:     25 * time.Second,
		PingTimeout:      60 * time.Second,
		WriteTimeout:     5 * time.Second,
		FrameBuffer:      1000,
		NoticeBuffer:     64,
		SendRate:         5,
		SendBurst:        10,
	}
}
