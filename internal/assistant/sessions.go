package assistant

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/johnrirwin/smartnews/internal/metrics"
)

// DefaultMaxSessions bounds the number of open chat panels.
const DefaultMaxSessions = 1024

// Sessions is a bounded registry of open chat sessions. The least recently
// used session is dropped when the registry is full. A session is only
// visible to the reader that opened it.
type Sessions struct {
	responder Responder
	sessions  *lru.Cache[string, *Session]
}

// NewSessions creates a registry holding up to size sessions.
func NewSessions(size int, responder Responder) (*Sessions, error) {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	c, err := lru.New[string, *Session](size)
	if err != nil {
		return nil, fmt.Errorf("create session registry: %w", err)
	}
	return &Sessions{responder: responder, sessions: c}, nil
}

// Open starts a new session owned by readerID.
func (r *Sessions) Open(readerID string) *Session {
	s := NewSession(uuid.NewString(), r.responder)
	s.owner = readerID
	r.sessions.Add(s.ID(), s)
	metrics.SetChatSessions(r.sessions.Len())
	return s
}

// Get returns an open session owned by readerID.
func (r *Sessions) Get(id, readerID string) (*Session, bool) {
	s, ok := r.sessions.Get(id)
	if !ok || s.owner != readerID {
		return nil, false
	}
	return s, true
}

// Close discards a session owned by readerID and its transcript.
func (r *Sessions) Close(id, readerID string) bool {
	if _, ok := r.Get(id, readerID); !ok {
		return false
	}
	ok := r.sessions.Remove(id)
	metrics.SetChatSessions(r.sessions.Len())
	return ok
}

// Len returns the number of open sessions.
func (r *Sessions) Len() int {
	return r.sessions.Len()
}
