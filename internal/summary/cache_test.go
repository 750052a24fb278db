package summary

import (
	"testing"
	"time"

	"github.com/rickgao/chat-sync/internal/model"
)

func strPtr(s string) *string         { return &s }
func intPtr(n int) *int               { return &n }
func timePtr(ts time.Time) *time.Time { return &ts }

func TestCache_ApplyCreatesEntry(t *testing.T) {
	c := New()

	c.Apply(model.RoomUpdate{
		RoomID:  "42",
		Preview: strPtr("hello"),
		Unread:  intPtr(2),
	})

	s, ok := c.Get("42")
	if !ok {
		t.Fatal("entry not created")
	}
	if s.Preview != "hello" {
		t.Errorf("Preview = %q, want hello", s.Preview)
	}
	if s.Unread != 2 {
		t.Errorf("Unread = %d, want 2", s.Unread)
	}
}

func TestCache_FieldLevelMerge(t *testing.T) {
	c := New()

	// Push update sets unread; a later optimistic send must not clobber it.
	c.Apply(model.RoomUpdate{RoomID: "42", Unread: intPtr(3)})
	c.OptimisticOnSend("42", "hi")

	s, _ := c.Get("42")
	if s.Unread != 3 {
		t.Errorf("Unread = %d, want 3 (optimistic send must not touch unread)", s.Unread)
	}
	if s.Preview != "hi" {
		t.Errorf("Preview = %q, want hi", s.Preview)
	}

	// And the other direction: a partial push with only a preview must
	// not reset unread.
	c.Apply(model.RoomUpdate{RoomID: "42", Preview: strPtr("newer")})
	s, _ = c.Get("42")
	if s.Unread != 3 {
		t.Errorf("Unread = %d after preview-only update, want 3", s.Unread)
	}
	if s.Preview != "newer" {
		t.Errorf("Preview = %q, want newer", s.Preview)
	}
}

func TestCache_UnreadNeverNegative(t *testing.T) {
	c := New()

	c.Apply(model.RoomUpdate{RoomID: "42", Unread: intPtr(-5)})
	if s, _ := c.Get("42"); s.Unread != 0 {
		t.Errorf("Unread = %d, want 0 (negative clamps)", s.Unread)
	}

	c.ClearUnread("42")
	c.ClearUnread("42")
	if s, _ := c.Get("42"); s.Unread != 0 {
		t.Errorf("Unread = %d after double clear, want 0", s.Unread)
	}
}

func TestCache_ClearUnreadOnlyTouchesUnread(t *testing.T) {
	c := New()
	ts := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	c.Apply(model.RoomUpdate{
		RoomID:        "42",
		Preview:       strPtr("keep me"),
		LastMessageAt: timePtr(ts),
		Unread:        intPtr(7),
	})
	c.ClearUnread("42")

	s, _ := c.Get("42")
	if s.Unread != 0 {
		t.Errorf("Unread = %d, want 0", s.Unread)
	}
	if s.Preview != "keep me" {
		t.Errorf("Preview = %q, ClearUnread must not touch it", s.Preview)
	}
	if !s.LastMessageAt.Equal(ts) {
		t.Errorf("LastMessageAt = %v, ClearUnread must not touch it", s.LastMessageAt)
	}
}

func TestCache_OptimisticOnSendSetsNow(t *testing.T) {
	c := New()

	before := time.Now()
	c.OptimisticOnSend("42", "outbound")
	after := time.Now()

	s, ok := c.Get("42")
	if !ok {
		t.Fatal("entry not created by optimistic send")
	}
	if s.LastMessageAt.Before(before) || s.LastMessageAt.After(after) {
		t.Errorf("LastMessageAt = %v, want between %v and %v", s.LastMessageAt, before, after)
	}
}

func TestCache_Snapshot(t *testing.T) {
	c := New()
	old := time.Now().Add(-time.Hour)
	recent := time.Now()

	c.Apply(model.RoomUpdate{RoomID: "old", LastMessageAt: timePtr(old)})
	c.Apply(model.RoomUpdate{RoomID: "recent", LastMessageAt: timePtr(recent)})

	snap := c.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("len = %d, want 2", len(snap))
	}
	if snap[0].RoomID != "recent" {
		t.Errorf("snapshot[0] = %q, want recent first", snap[0].RoomID)
	}
}

func TestCache_Clear(t *testing.T) {
	c := New()
	c.Apply(model.RoomUpdate{RoomID: "42", Unread: intPtr(1)})

	c.Clear()
	if _, ok := c.Get("42"); ok {
		t.Error("Clear left entries behind")
	}
}
