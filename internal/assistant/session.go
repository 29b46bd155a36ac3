package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnrirwin/smartnews/internal/models"
)

var (
	// ErrBusy is returned when a message is sent while a reply is pending.
	ErrBusy = errors.New("assistant is still answering the previous message")
	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// State is the transcript's request state.
type State int

const (
	Idle State = iota
	Awaiting
)

func (s State) String() string {
	if s == Awaiting {
		return "awaiting"
	}
	return "idle"
}

// Responder produces an assistant reply. It must always return.
type Responder interface {
	Respond(ctx context.Context, query string, article *models.Article) string
}

// Session is one open chat panel: an append-only transcript guarded by an
// Idle/Awaiting state. Only one request may be in flight at a time.
type Session struct {
	id        string
	owner     string
	responder Responder
	now       func() time.Time

	mu         sync.Mutex
	state      State
	transcript []models.ChatTurn
}

// NewSession creates a session whose transcript starts with the welcome turn.
func NewSession(id string, responder Responder) *Session {
	s := &Session{
		id:        id,
		responder: responder,
		now:       time.Now,
	}
	s.transcript = []models.ChatTurn{s.turn(WelcomeMessage, models.SenderAI)}
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Owner returns the reader the session was opened for.
func (s *Session) Owner() string {
	return s.owner
}

// State returns the current request state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns a copy of the turns so far.
func (s *Session) Transcript() []models.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatTurn, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Send appends the user's turn, waits for the reply and appends it as an AI
// turn. Blank input returns ErrEmptyMessage and a send while another is
// pending returns ErrBusy; neither reaches the responder.
func (s *Session) Send(ctx context.Context, text string, article *models.Article) (models.ChatTurn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatTurn{}, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state == Awaiting {
		s.mu.Unlock()
		return models.ChatTurn{}, ErrBusy
	}
	s.transcript = append(s.transcript, s.turn(text, models.SenderUser))
	s.state = Awaiting
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = Idle
		s.mu.Unlock()
	}()

	reply := s.responder.Respond(ctx, text, article)

	s.mu.Lock()
	turn := s.turn(reply, models.SenderAI)
	s.transcript = append(s.transcript, turn)
	s.mu.Unlock()
	return turn, nil
}

func (s *Session) turn(text string, sender models.Sender) models.ChatTurn {
	t := models.ChatTurn{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.now(),
	}
	if sender == models.SenderAI {
		t.Links = ExtractLinks(text)
	}
	return t
}
