package history

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rickgao/chat-sync/internal/model"
)

// Page is one page of historical messages in ascending chronological
// order, plus a flag for whether older pages remain.
type Page struct {
	Messages []model.Message
	HasMore  bool
}

// messagePageResponse is the wire format of the history endpoint.
type messagePageResponse struct {
	Messages []messageRecord `json:"messages"`
	HasMore  bool            `json:"hasMore"`
}

type messageRecord struct {
	RoomID      string `json:"roomId"`
	SenderID    string `json:"senderId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
	ImageURL    string `json:"imageUrl"`
	Blocked     bool   `json:"blocked"`
	CreatedAt   string `json:"createdAt"` // RFC 3339
}

// FetchPage fetches one page of a room's history, oldest first within
// the page. page is zero-based.
func (c *Client) FetchPage(ctx context.Context, roomID string, page, size int) (*Page, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	if size > 0 {
		query.Set("size", strconv.Itoa(size))
	}

	var resp messagePageResponse
	path := "/rooms/" + url.PathEscape(roomID) + "/messages"
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("fetch history page: %w", err)
	}

	out := &Page{
		Messages: make([]model.Message, 0, len(resp.Messages)),
		HasMore:  resp.HasMore,
	}
	for _, rec := range resp.Messages {
		msg, err := rec.toModel(c.userID)
		if err != nil {
			return nil, fmt.Errorf("fetch history page: %w", err)
		}
		out.Messages = append(out.Messages, msg)
	}

	return out, nil
}

func (rec messageRecord) toModel(userID string) (model.Message, error) {
	kind := model.MessageKind(rec.MessageType)
	if !kind.Valid() {
		return model.Message{}, fmt.Errorf("invalid message type %q", rec.MessageType)
	}

	var createdAt time.Time
	if rec.CreatedAt != "" {
		ts, err := time.Parse(time.RFC3339, rec.CreatedAt)
		if err != nil {
			return model.Message{}, fmt.Errorf("parse createdAt: %w", err)
		}
		createdAt = ts
	}

	return model.Message{
		RoomID:    rec.RoomID,
		SenderID:  rec.SenderID,
		Content:   rec.Content,
		ImageURL:  rec.ImageURL,
		Kind:      kind,
		Blocked:   rec.Blocked,
		Mine:      userID != "" && rec.SenderID == userID,
		CreatedAt: createdAt,
	}, nil
}
