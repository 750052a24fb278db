package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/rickgao/chat-sync/internal/ledger"
	"github.com/rickgao/chat-sync/internal/metrics"
	"github.com/rickgao/chat-sync/internal/model"
	"github.com/rickgao/chat-sync/internal/router"
	"github.com/rickgao/chat-sync/internal/summary"
	"github.com/rickgao/chat-sync/internal/transport"
)

// Session is the sync engine for one authenticated chat session. It is
// created on login and discarded on logout; Disconnect is terminal.
type Session struct {
	cfg    Config
	logger *slog.Logger

	userID   string
	endpoint string
	token    string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Session state. connected is the engine-level flag: it turns true
	// only after the account-wide listeners are registered.
	mu        sync.Mutex
	conn      transport.Client
	connected bool
	closed    bool
	lastErr   error
	rooms     map[string]RoomState

	// Command/ack correlation
	pendingMu sync.Mutex
	pending   map[int64]chan router.Ack
	cmdID     int64 // atomic counter

	registry *registry
	ledger   *ledger.Ledger
	cache    *summary.Cache
	notices  *router.GrowableBuffer[Notice]
	limiter  *rate.Limiter
}

// New creates a session for the given user. userID is only used to
// derive the Mine flag on inbound messages.
func New(cfg Config, userID string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		cfg:      cfg,
		logger:   logger,
		userID:   userID,
		rooms:    make(map[string]RoomState),
		pending:  make(map[int64]chan router.Ack),
		registry: newRegistry(),
		ledger:   ledger.New(),
		cache:    summary.New(),
		notices:  router.NewGrowableBuffer[Notice](cfg.NoticeBuffer),
		limiter:  rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
	}
}

// Connect establishes the transport channel with the given endpoint and
// bearer credential. A second call while a connection is live is a
// no-op. The account-wide listeners (errors, room list) are registered
// before the session reports connected so no early room-list events are
// lost; only then are deferred room entries driven.
func (s *Session) Connect(ctx context.Context, endpoint, token string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.connected {
		s.mu.Unlock()
		return nil
	}
	s.endpoint = endpoint
	s.token = token
	if s.ctx == nil {
		s.ctx, s.cancel = context.WithCancel(ctx)
	}
	s.mu.Unlock()

	client := transport.NewClient(s.clientConfig(), s.logger)
	if err := client.Connect(ctx); err != nil {
		s.setErr(err)
		return fmt.Errorf("connect transport: %w", err)
	}

	stop := make(chan struct{})
	s.mu.Lock()
	s.conn = client
	s.mu.Unlock()

	s.wg.Add(1)
	go s.readLoop(client, stop)

	// Account-wide listeners must be live before anything else sees the
	// session as connected.
	if err := s.subscribe(ctx, router.ErrorsTopic); err != nil {
		s.abortConnection(client, stop)
		s.setErr(err)
		return fmt.Errorf("subscribe errors topic: %w", err)
	}
	if err := s.subscribe(ctx, router.RoomListTopic); err != nil {
		s.abortConnection(client, stop)
		s.setErr(err)
		return fmt.Errorf("subscribe room-list topic: %w", err)
	}

	s.mu.Lock()
	s.connected = true
	deferred := s.roomsInStateLocked(StateSubscribing)
	s.mu.Unlock()
	metrics.Connected.Set(1)

	s.logger.Info("session connected", "endpoint", endpoint, "deferred_rooms", len(deferred))

	// Drive room entries that happened while disconnected.
	for _, roomID := range deferred {
		if err := s.activateRoom(ctx, roomID); err != nil {
			s.logger.Warn("deferred room subscribe failed", "room", roomID, "error", err)
		}
	}

	return nil
}

// Disconnect tears the session down: the transport channel, every
// subscription, the ledger, and the summary cache all go together.
// This is the only operation that cancels everything atomically.
func (s *Session) Disconnect() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.connected = false
	conn := s.conn
	s.conn = nil
	s.rooms = make(map[string]RoomState)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	if conn != nil {
		conn.Close()
	}
	s.wg.Wait()

	s.registry.clear()
	s.ledger.Clear()
	s.cache.Clear()
	s.notices.Close()
	metrics.Connected.Set(0)

	s.logger.Info("session disconnected")
	return nil
}

// IsConnected reports the engine-level connection state.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Err returns the current transport error, if any. Newer errors replace
// older ones; the value stays set until ClearErr.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearErr clears the current error. The caller decides when the user
// has seen it; success does not auto-clear.
func (s *Session) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// EnterRoom opens a room view: CLOSED → SUBSCRIBING → ACTIVE. The
// room's live buffer is cleared exactly once per entry, before the room
// can turn ACTIVE, so the buffer only ever holds messages newer than
// the history the viewer is about to fetch. If the connection is not
// active yet the subscription intent is deferred, not dropped.
func (s *Session) EnterRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if st := s.rooms[roomID]; st == StateSubscribing || st == StateActive {
		s.mu.Unlock()
		return nil
	}
	s.rooms[roomID] = StateSubscribing
	connected := s.connected
	s.mu.Unlock()

	s.ledger.ClearRoom(roomID)

	if !connected {
		return nil
	}
	return s.activateRoom(ctx, roomID)
}

// LeaveRoom closes a room view and releases its topic binding. Other
// rooms and the account-wide subscriptions are untouched; the room's
// buffered messages stay until the next entry clears them.
func (s *Session) LeaveRoom(ctx context.Context, roomID string) error {
	s.mu.Lock()
	st, open := s.rooms[roomID]
	delete(s.rooms, roomID)
	s.mu.Unlock()

	if !open || st == StateClosed {
		return nil
	}
	return s.unsubscribe(ctx, router.RoomTopic(roomID))
}

// RoomState returns the view lifecycle state for a room.
func (s *Session) RoomState(roomID string) RoomState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.rooms[roomID]; ok {
		return st
	}
	return StateClosed
}

// Messages returns a copy of a room's live buffer in receipt order.
func (s *Session) Messages(roomID string) []model.Message {
	return s.ledger.Messages(roomID)
}

// Inbox returns the room summaries, newest activity first.
func (s *Session) Inbox() []model.RoomSummary {
	return s.cache.Snapshot()
}

// Summary returns one room's summary.
func (s *Session) Summary(roomID string) (model.RoomSummary, bool) {
	return s.cache.Get(roomID)
}

// ClearUnread zeroes a room's unread count, typically when the UI has
// shown the room's messages. Preview and timestamp are untouched.
func (s *Session) ClearUnread(roomID string) {
	s.cache.ClearUnread(roomID)
}

// Notices returns the queue of server-pushed error notices.
func (s *Session) Notices() *router.GrowableBuffer[Notice] {
	return s.notices
}

// clientConfig builds the transport config from session settings.
func (s *Session) clientConfig() transport.ClientConfig {
	return transport.ClientConfig{
		Endpoint:     s.endpoint,
		Token:        s.token,
		PingInterval: s.cfg.PingInterval,
		PingTimeout:  s.cfg.PingTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		BufferSize:   s.cfg.FrameBuffer,
	}
}

// currentConn returns the live transport client, or nil.
func (s *Session) currentConn() transport.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// roomsInStateLocked returns rooms currently in the given state.
// Caller must hold s.mu.
func (s *Session) roomsInStateLocked(state RoomState) []string {
	var out []string
	for roomID, st := range s.rooms {
		if st == state {
			out = append(out, roomID)
		}
	}
	return out
}

// setErr records a transport error, replacing any previous one.
func (s *Session) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// abortConnection unwinds a connection attempt that failed after the
// transport came up: the read loop is stopped, the connection closed,
// and every binding recorded during the attempt is discarded so a
// retry starts from a clean registry.
func (s *Session) abortConnection(conn transport.Client, stop chan struct{}) {
	close(stop)
	conn.Close()
	s.registry.clear()

	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
}

// activateRoom binds a room topic and promotes the view to ACTIVE.
func (s *Session) activateRoom(ctx context.Context, roomID string) error {
	if err := s.subscribe(ctx, router.RoomTopic(roomID)); err != nil {
		// The view stays SUBSCRIBING; a reconnect re-drives it.
		return err
	}

	s.mu.Lock()
	if _, open := s.rooms[roomID]; open {
		s.rooms[roomID] = StateActive
	}
	s.mu.Unlock()
	return nil
}

// subscribe binds a topic. Already-bound topics return immediately with
// no duplicate binding. The binding is recorded before the ack and
// rolled back on failure, so a failed attempt leaves the registry
// unchanged and a retry is safe.
func (s *Session) subscribe(ctx context.Context, topic string) error {
	conn := s.currentConn()
	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}

	id := atomic.AddInt64(&s.cmdID, 1)
	if !s.registry.add(topic, id) {
		return nil
	}

	if _, err := s.sendCommand(ctx, conn, router.Command{ID: id, Cmd: "subscribe", Destination: topic}); err != nil {
		s.registry.remove(topic)
		return err
	}

	s.logger.Debug("subscribed", "topic", topic, "cmd_id", id)
	return nil
}

// unsubscribe releases a topic binding. Unknown topics are a no-op.
// Releasing while disconnected only drops the local binding.
func (s *Session) unsubscribe(ctx context.Context, topic string) error {
	if !s.registry.remove(topic) {
		return nil
	}

	conn := s.currentConn()
	if conn == nil || !conn.IsConnected() {
		// The server-side binding died with the connection.
		return nil
	}

	id := atomic.AddInt64(&s.cmdID, 1)
	if _, err := s.sendCommand(ctx, conn, router.Command{ID: id, Cmd: "unsubscribe", Destination: topic}); err != nil {
		s.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
		return err
	}

	s.logger.Debug("unsubscribed", "topic", topic)
	return nil
}

// sendCommand transmits a control command and waits for its ack.
func (s *Session) sendCommand(ctx context.Context, conn transport.Client, cmd router.Command) (router.Ack, error) {
	respCh := make(chan router.Ack, 1)

	s.pendingMu.Lock()
	s.pending[cmd.ID] = respCh
	s.pendingMu.Unlock()

	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, cmd.ID)
		s.pendingMu.Unlock()
	}()

	data, err := json.Marshal(cmd)
	if err != nil {
		return router.Ack{}, err
	}
	if err := conn.Send(data); err != nil {
		return router.Ack{}, err
	}

	select {
	case <-ctx.Done():
		return router.Ack{}, ctx.Err()
	case <-time.After(s.cfg.SubscribeTimeout):
		return router.Ack{}, ErrSubscribeTimeout
	case ack := <-respCh:
		if ack.Type == "error" {
			var ackErr router.AckError
			json.Unmarshal(ack.Body, &ackErr)
			return router.Ack{}, fmt.Errorf("%s: %s", ackErr.Code, ackErr.Message)
		}
		return ack, nil
	}
}

// routeAck hands an ack to the goroutine waiting on its command id.
func (s *Session) routeAck(ack router.Ack) {
	s.pendingMu.Lock()
	ch, ok := s.pending[ack.ID]
	if ok {
		delete(s.pending, ack.ID)
	}
	s.pendingMu.Unlock()

	if ok {
		select {
		case ch <- ack:
		default:
		}
	}
}

// readLoop consumes one transport client's frames until it dies, then
// hands off to the reconnect loop. stop tears the loop down when the
// session abandons this connection without abandoning the session.
func (s *Session) readLoop(conn transport.Client, stop <-chan struct{}) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-stop:
			return

		case err := <-conn.Errors():
			// A connection the session already walked away from, or
			// one that never finished its account subscriptions, must
			// not trigger a reconnect of its own: the first belongs to
			// a dead attempt, the second still has its Connect (or
			// reconnect attempt) in flight to report the failure.
			s.mu.Lock()
			current := s.conn == conn && !s.closed
			wasConnected := current && s.connected
			if current {
				s.connected = false
				s.lastErr = err
			}
			s.mu.Unlock()
			if !wasConnected {
				return
			}

			s.logger.Warn("connection error", "error", err)
			metrics.Connected.Set(0)

			s.wg.Add(1)
			go s.reconnect()
			return

		case frame, ok := <-conn.Frames():
			if !ok {
				return
			}

			if ack, ok := router.TryParseAck(frame.Data); ok {
				s.routeAck(ack)
				continue
			}

			s.dispatch(frame)
		}
	}
}

// dispatch decodes one data frame and applies it to engine state.
func (s *Session) dispatch(raw transport.TimestampedFrame) {
	frame, err := router.Decode(raw)
	if err != nil {
		metrics.ParseErrors.Inc()
		s.logger.Warn("dropping undecodable frame", "error", err)
		return
	}

	switch f := frame.(type) {
	case router.RoomMessageFrame:
		msg := f.Message
		msg.Mine = msg.SenderID == s.userID
		s.ledger.Append(msg.RoomID, msg)
		metrics.FramesRouted.WithLabelValues("room_message").Inc()

	case router.RoomListFrame:
		s.cache.Apply(f.Update)
		metrics.FramesRouted.WithLabelValues("room_update").Inc()

	case router.ErrorFrame:
		// Surfaced to the UI only; never touches ledger or cache.
		if !s.notices.Send(Notice{Message: f.Notice, ReceivedAt: f.ReceivedAt}) {
			metrics.NoticesDropped.Inc()
		}
		metrics.FramesRouted.WithLabelValues("error_notice").Inc()

	default:
		s.logger.Warn("unhandled frame", "type", fmt.Sprintf("%T", frame))
	}
}

// reconnect re-establishes the transport after an unplanned drop with a
// fixed delay between attempts, then replays every subscription:
// account-wide queues first, then the previously bound room topics,
// then rooms whose entry was still pending. An attempt that cannot
// restore the account-wide listeners is abandoned and retried whole;
// the session never reports connected without them.
func (s *Session) reconnect() {
	defer s.wg.Done()

	roomTopics := s.registry.roomTopics()

	if old := s.currentConn(); old != nil {
		old.Close()
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.cfg.ReconnectDelay):
		}

		metrics.Reconnects.Inc()
		s.logger.Info("attempting reconnection", "endpoint", s.endpoint)

		client := transport.NewClient(s.clientConfig(), s.logger)
		if err := client.Connect(s.ctx); err != nil {
			s.logger.Warn("reconnection failed", "error", err)
			continue
		}

		stop := make(chan struct{})
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			client.Close()
			return
		}
		s.conn = client
		s.mu.Unlock()

		s.wg.Add(1)
		go s.readLoop(client, stop)

		if err := s.restoreSubscriptions(roomTopics); err != nil {
			s.logger.Warn("subscription restore failed", "error", err)
			s.abortConnection(client, stop)
			continue
		}

		s.logger.Info("reconnected", "subscriptions", s.registry.count())
		return
	}
}

// restoreSubscriptions replays bindings on a fresh connection. The old
// bindings died with the previous connection, so the registry is
// rebuilt from scratch. Failing either account-wide queue fails the
// whole attempt; per-room failures only log, a later re-entry or drop
// re-drives them.
func (s *Session) restoreSubscriptions(roomTopics []string) error {
	s.registry.clear()

	if err := s.subscribe(s.ctx, router.ErrorsTopic); err != nil {
		return fmt.Errorf("resubscribe errors topic: %w", err)
	}
	if err := s.subscribe(s.ctx, router.RoomListTopic); err != nil {
		return fmt.Errorf("resubscribe room-list topic: %w", err)
	}

	s.mu.Lock()
	s.connected = true
	deferred := s.roomsInStateLocked(StateSubscribing)
	s.mu.Unlock()
	metrics.Connected.Set(1)

	for _, topic := range roomTopics {
		if err := s.subscribe(s.ctx, topic); err != nil {
			s.logger.Warn("resubscribe room topic failed", "topic", topic, "error", err)
		}
	}
	for _, roomID := range deferred {
		if err := s.activateRoom(s.ctx, roomID); err != nil {
			s.logger.Warn("deferred room subscribe failed", "room", roomID, "error", err)
		}
	}
	return nil
}
