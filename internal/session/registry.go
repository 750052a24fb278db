package session

import (
	"strings"
	"sync"

	"github.com/rickgao/chat-sync/internal/router"
)

// subscription is one topic binding, either a room topic or one of the
// account-wide queues.
type subscription struct {
	Topic string
	CmdID int64 // id of the subscribe command that created the binding
}

// registry tracks active subscriptions keyed by topic. Topic keys are
// unique: adding an already-bound topic fails, which is what makes
// subscribe idempotent at the session layer.
type registry struct {
	mu   sync.Mutex
	subs map[string]*subscription
}

func newRegistry() *registry {
	return &registry{
		subs: make(map[string]*subscription),
	}
}

// add records a binding. Returns false if the topic is already bound.
func (r *registry) add(topic string, cmdID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[topic]; exists {
		return false
	}
	r.subs[topic] = &subscription{Topic: topic, CmdID: cmdID}
	return true
}

// remove releases a binding. Returns false if the topic was not bound;
// removing an unknown key is a no-op for callers.
func (r *registry) remove(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[topic]; !exists {
		return false
	}
	delete(r.subs, topic)
	return true
}

// has reports whether a topic is currently bound.
func (r *registry) has(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.subs[topic]
	return exists
}

// roomTopics returns the bound per-room topics (account-wide queues
// excluded). Used to replay subscriptions after a reconnect.
func (r *registry) roomTopics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	topics := make([]string, 0, len(r.subs))
	for topic := range r.subs {
		if strings.HasPrefix(topic, router.RoomTopicPrefix) {
			topics = append(topics, topic)
		}
	}
	return topics
}

// count returns the number of active bindings.
func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// clear drops every binding. All subscriptions invalidate together when
// the connection is torn down.
func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = make(map[string]*subscription)
}
