// Package logbus implements a per-workspace publish/subscribe log topic.
// Publishers push LogEvents; subscribers receive every event published
// after they subscribe, in publication order. A subscriber that falls
// behind has its oldest unread events dropped rather than blocking the
// publisher or other subscribers.
package logbus

import (
	"sync"
	"time"
)

// LogEvent is one line of child-process output attributed to a workspace.
type LogEvent struct {
	WorkspaceID string    `json:"appId"`
	Message     string    `json:"message"`
	IsError     bool      `json:"isError"`
	Timestamp   time.Time `json:"timestamp"`
}

// Subscription is a live handle to a topic subscription. Callers must call
// Close when done to release subscriber state.
type Subscription struct {
	C       <-chan LogEvent
	Dropped func() uint64 // cumulative count of events dropped for backpressure
	close   func()
}

// Close unsubscribes and releases resources. Safe to call more than once.
func (s *Subscription) Close() { s.close() }

type subscriber struct {
	ch      chan LogEvent
	dropped uint64
	mu      sync.Mutex
	closed  bool
}

func (sub *subscriber) send(ev LogEvent) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	select {
	case sub.ch <- ev:
		return
	default:
	}
	// Buffer full: drop the oldest queued event to make room, recording the
	// drop, rather than blocking the publisher.
	select {
	case <-sub.ch:
		sub.dropped++
	default:
	}
	select {
	case sub.ch <- ev:
	default:
	}
}

func (sub *subscriber) droppedCount() uint64 {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.dropped
}

type topic struct {
	mu          sync.Mutex
	subscribers map[int64]*subscriber
	nextID      int64
	replay      []LogEvent // bounded ring buffer of the last N events
	replayCap   int
}

func newTopic(replayCap int) *topic {
	return &topic{subscribers: make(map[int64]*subscriber), replayCap: replayCap}
}

func (t *topic) publish(ev LogEvent) {
	t.mu.Lock()
	if t.replayCap > 0 {
		t.replay = append(t.replay, ev)
		if len(t.replay) > t.replayCap {
			t.replay = t.replay[len(t.replay)-t.replayCap:]
		}
	}
	subs := make([]*subscriber, 0, len(t.subscribers))
	for _, s := range t.subscribers {
		subs = append(subs, s)
	}
	t.mu.Unlock()

	for _, s := range subs {
		s.send(ev)
	}
}

func (t *topic) subscribe(bufferSize int) (*subscriber, int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	sub := &subscriber{ch: make(chan LogEvent, bufferSize)}
	// Seed the replay backlog before registering, under the topic lock:
	// any event published afterwards is sent to this subscriber only after
	// the lock is released, so it queues behind the backlog.
	for _, ev := range t.replay {
		sub.send(ev)
	}
	t.subscribers[id] = sub
	return sub, id
}

func (t *topic) unsubscribe(id int64) {
	t.mu.Lock()
	sub, ok := t.subscribers[id]
	if ok {
		delete(t.subscribers, id)
	}
	t.mu.Unlock()
	if !ok {
		return
	}
	sub.mu.Lock()
	sub.closed = true
	close(sub.ch)
	sub.mu.Unlock()
}

// Bus fans out LogEvents to subscribers, keyed by workspace ID.
type Bus struct {
	mu         sync.Mutex
	topics     map[string]*topic
	bufferSize int
	replayCap  int
}

// Option configures a Bus.
type Option func(*Bus)

// WithBufferSize sets the per-subscriber channel capacity (default 256).
func WithBufferSize(n int) Option {
	return func(b *Bus) { b.bufferSize = n }
}

// WithReplay sets the number of recent events replayed to a new subscriber
// on Subscribe (default 0, meaning no replay).
func WithReplay(n int) Option {
	return func(b *Bus) { b.replayCap = n }
}

// New constructs a Bus.
func New(opts ...Option) *Bus {
	b := &Bus{topics: make(map[string]*topic), bufferSize: 256}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) topicFor(workspaceID string) *topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[workspaceID]
	if !ok {
		t = newTopic(b.replayCap)
		b.topics[workspaceID] = t
	}
	return t
}

// Publish pushes ev to every current subscriber of ev.WorkspaceID.
func (b *Bus) Publish(ev LogEvent) {
	b.topicFor(ev.WorkspaceID).publish(ev)
}

// Subscribe returns a Subscription delivering events published to
// workspaceID from this point forward (plus any replay backlog, delivered
// before live events). Close the Subscription when the caller disconnects.
func (b *Bus) Subscribe(workspaceID string) *Subscription {
	t := b.topicFor(workspaceID)
	sub, id := t.subscribe(b.bufferSize)

	return &Subscription{
		C:       sub.ch,
		Dropped: sub.droppedCount,
		close:   func() { t.unsubscribe(id) },
	}
}
