// Package generate implements the Generation Pipeline: the part of the
// system that turns one chat prompt into a streamed assistant reply,
// driving an LLM provider through a bounded tool-calling loop against a
// single app workspace and persisting the result.
package generate

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Session tracks one in-flight generation so it can be cancelled by a
// separate request before it completes.
type Session struct {
	ID     string
	ChatID string
	cancel context.CancelFunc
}

// Registry holds live Sessions, keyed by stream ID. It follows the same
// mutex-guarded-map shape the rate limiter uses for its visitor table.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry constructs an empty session Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// New derives a cancellable child context, registers a Session for it under
// a freshly generated stream ID, and returns both.
func (r *Registry) New(ctx context.Context, chatID string) (*Session, context.Context) {
	child, cancel := context.WithCancel(ctx)
	s := &Session{ID: ulid.Make().String(), ChatID: chatID, cancel: cancel}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s, child
}

// Cancel invokes streamID's cancellation handle and removes it from the
// registry. Returns false if no such session is registered (it may already
// have completed, a harmless race per the cancellation contract).
func (r *Registry) Cancel(streamID string) bool {
	r.mu.Lock()
	s, ok := r.sessions[streamID]
	delete(r.sessions, streamID)
	r.mu.Unlock()

	if !ok {
		return false
	}
	s.cancel()
	return true
}

// Release removes streamID from the registry without cancelling it, used
// once a generation completes on its own.
func (r *Registry) Release(streamID string) {
	r.mu.Lock()
	delete(r.sessions, streamID)
	r.mu.Unlock()
}
