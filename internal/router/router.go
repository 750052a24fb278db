package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rickgao/chat-sync/internal/model"
	"github.com/rickgao/chat-sync/internal/transport"
)

// TryParseAck attempts to parse a raw frame as a command ack.
// Data frames carry a destination instead of an id/type pair, so a
// cheap marker check runs before the full parse.
func TryParseAck(data []byte) (Ack, bool) {
	if !bytes.Contains(data, []byte(`"id":`)) {
		return Ack{}, false
	}

	var ack Ack
	if err := json.Unmarshal(data, &ack); err != nil {
		return Ack{}, false
	}

	switch ack.Type {
	case "subscribed", "unsubscribed", "error", "ok":
		return ack, true
	}

	return Ack{}, false
}

// Decode parses a raw inbound frame into its typed form. The returned
// Frame is one of RoomMessageFrame, RoomListFrame, or ErrorFrame.
func Decode(raw transport.TimestampedFrame) (Frame, error) {
	var env frameEnvelope
	if err := json.Unmarshal(raw.Data, &env); err != nil {
		return nil, fmt.Errorf("decode frame envelope: %w", err)
	}
	if env.Destination == "" {
		return nil, ErrMissingDestination
	}

	switch {
	case strings.HasPrefix(env.Destination, RoomTopicPrefix):
		return decodeRoomMessage(env, raw.ReceivedAt)

	case env.Destination == RoomListTopic:
		return decodeRoomUpdate(env, raw.ReceivedAt)

	case env.Destination == ErrorsTopic:
		return decodeErrorNotice(env, raw.ReceivedAt)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDestination, env.Destination)
	}
}

func decodeRoomMessage(env frameEnvelope, receivedAt time.Time) (Frame, error) {
	roomID, ok := RoomIDFromTopic(env.Destination)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDestination, env.Destination)
	}

	var wire messageWire
	if err := json.Unmarshal(env.Body, &wire); err != nil {
		return nil, fmt.Errorf("decode room message: %w", err)
	}

	// The topic is authoritative for the room id; the body copy is
	// informational and may be absent on older servers.
	wire.RoomID = roomID

	kind := model.MessageKind(wire.MessageType)
	if !kind.Valid() {
		return nil, fmt.Errorf("decode room message: invalid message type %q", wire.MessageType)
	}

	createdAt := receivedAt
	if wire.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339, wire.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("decode room message timestamp: %w", err)
		}
		createdAt = ts
	}

	return RoomMessageFrame{
		Message: model.Message{
			RoomID:    wire.RoomID,
			SenderID:  wire.SenderID,
			Content:   wire.Content,
			ImageURL:  wire.ImageURL,
			Kind:      kind,
			Blocked:   wire.Blocked,
			CreatedAt: createdAt,
		},
		ReceivedAt: receivedAt,
	}, nil
}

func decodeRoomUpdate(env frameEnvelope, receivedAt time.Time) (Frame, error) {
	var wire roomUpdateWire
	if err := json.Unmarshal(env.Body, &wire); err != nil {
		return nil, fmt.Errorf("decode room update: %w", err)
	}
	if wire.RoomID == "" {
		return nil, fmt.Errorf("decode room update: missing roomId")
	}

	update := model.RoomUpdate{
		RoomID:  wire.RoomID,
		Preview: wire.Preview,
		Unread:  wire.Unread,
	}
	if wire.LastMessageAt != nil {
		ts, err := time.Parse(time.RFC3339, *wire.LastMessageAt)
		if err != nil {
			return nil, fmt.Errorf("decode room update timestamp: %w", err)
		}
		update.LastMessageAt = &ts
	}

	return RoomListFrame{
		Update:     update,
		ReceivedAt: receivedAt,
	}, nil
}

func decodeErrorNotice(env frameEnvelope, receivedAt time.Time) (Frame, error) {
	var wire errorWire
	if err := json.Unmarshal(env.Body, &wire); err != nil {
		return nil, fmt.Errorf("decode error notice: %w", err)
	}

	return ErrorFrame{
		Notice:     wire.Message,
		ReceivedAt: receivedAt,
	}, nil
}
