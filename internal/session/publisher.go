package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/rickgao/chat-sync/internal/metrics"
	"github.com/rickgao/chat-sync/internal/model"
	"github.com/rickgao/chat-sync/internal/router"
)

// Send publishes a chat message to a room. kind must be text or image;
// imageURL accompanies image sends. The canonical message arrives back
// on the room topic after the server persists it, so the ledger is not
// touched here. Only the sender's own room summary is bumped
// optimistically, to keep the inbox ordering responsive; the bump is
// never rolled back, the next server update simply overwrites it.
//
// A send while disconnected is rejected outright. Nothing is buffered
// and no local state changes, so the caller can tell the message did
// not go out.
func (s *Session) Send(ctx context.Context, roomID, content string, kind model.MessageKind, imageURL string) error {
	if kind != model.KindText && kind != model.KindImage {
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	s.mu.Lock()
	conn := s.conn
	connected := s.connected && !s.closed
	s.mu.Unlock()

	if !connected || conn == nil || !conn.IsConnected() {
		metrics.SendsRejected.Inc()
		return ErrNotConnected
	}

	if !s.limiter.Allow() {
		metrics.SendsRejected.Inc()
		return ErrRateLimited
	}

	pub := router.Publication{
		Destination: router.SendDestination,
		Body: router.SendEnvelope{
			ID:          uuid.NewString(),
			RoomID:      roomID,
			Content:     content,
			MessageType: string(kind),
			ImageURL:    imageURL,
		},
	}

	data, err := json.Marshal(pub)
	if err != nil {
		return err
	}
	if err := conn.Send(data); err != nil {
		s.setErr(err)
		return err
	}
	metrics.MessagesSent.Inc()

	preview := content
	if kind == model.KindImage {
		preview = model.ImagePreview
	}
	s.cache.OptimisticOnSend(roomID, preview)

	s.logger.Debug("message published", "room", roomID, "kind", kind)
	return nil
}
