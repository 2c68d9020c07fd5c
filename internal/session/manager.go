package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tesvikportal/asistan/pkg/asistan"
)

// StopMarker is appended to the visible text when the user stops a reply
// mid-reveal.
const StopMarker = "[yanıt durduruldu]"

// ErrBusy is returned when a send is attempted while another is in flight.
var ErrBusy = errors.New("a message is already being processed")

// State is the manager's send state machine.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
)

// Asker is the retrieval/generation boundary the manager talks to.
type Asker interface {
	Ask(ctx context.Context, messages []asistan.Message) (asistan.ChatResponse, error)
}

// SendResult reports the outcome of one send.
type SendResult struct {
	Message Message
	Aborted bool
}

// Manager owns the conversation state for one user or one local profile.
// The session list is loaded once from the chosen storage backend at
// construction and treated as the in-memory source of truth afterwards.
// Sends are serialized; callers should disable input while Busy.
type Manager struct {
	mu       sync.Mutex
	storage  Storage
	asker    Asker
	sessions []Session
	state    State
	logger   *log.Logger

	// reveal pacing, overridable for tests
	MinDelay time.Duration
	MaxDelay time.Duration

	// OnUpdate, when set, is invoked with a session snapshot after every
	// reveal step so a UI can re-render.
	OnUpdate func(Session)
}

// NewManager loads existing sessions from storage and returns a ready manager.
func NewManager(ctx context.Context, storage Storage, asker Asker) (*Manager, error) {
	sessions, err := storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	return &Manager{
		storage:  storage,
		asker:    asker,
		sessions: sessions,
		logger:   log.New(log.Writer(), "[SESS] ", log.LstdFlags),
		MinDelay: 30 * time.Millisecond,
		MaxDelay: 50 * time.Millisecond,
	}, nil
}

// State returns the current send state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Busy reports whether a send is in flight.
func (m *Manager) Busy() bool { return m.State() != StateIdle }

// Sessions returns a snapshot of all sessions.
func (m *Manager) Sessions() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, len(m.sessions))
	copy(out, m.sessions)
	return out
}

// Session returns a snapshot of one session.
func (m *Manager) Session(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.find(id)
	if s == nil {
		return Session{}, false
	}
	return *s, true
}

// NewSession creates an empty session. The storage write is awaited before
// the in-memory list is touched.
func (m *Manager) NewSession(ctx context.Context) (Session, error) {
	now := time.Now()
	s := Session{ID: uuid.NewString(), Title: DefaultTitle, CreatedAt: now, UpdatedAt: now}
	if err := m.storage.Create(ctx, s); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	m.sessions = append(m.sessions, s)
	m.mu.Unlock()
	return s, nil
}

// DeleteSession removes a session and its messages everywhere.
func (m *Manager) DeleteSession(ctx context.Context, id string) error {
	if err := m.storage.Delete(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	out := m.sessions[:0]
	for _, s := range m.sessions {
		if s.ID != id {
			out = append(out, s)
		}
	}
	m.sessions = out
	m.mu.Unlock()
	return nil
}

// SendMessage appends the user turn, asks the backend, and reveals the
// answer word by word. ctx only cancels the reveal stage: the upstream
// round trip deliberately runs on a detached context, matching the
// behaviour that a stop press truncates the reveal rather than the request.
// Provider failures come back as an error with the state machine reset to
// idle; the caller renders them inline.
func (m *Manager) SendMessage(ctx context.Context, sessionID, text string) (SendResult, error) {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return SendResult{}, ErrBusy
	}
	s := m.find(sessionID)
	if s == nil {
		m.mu.Unlock()
		return SendResult{}, fmt.Errorf("session %s not found", sessionID)
	}
	m.state = StateSending

	now := time.Now()
	userMsg := Message{ID: uuid.NewString(), Role: "user", Content: text, Timestamp: now}
	firstMessage := len(s.Messages) == 0
	s.Messages = append(s.Messages, userMsg)
	s.UpdatedAt = now
	if firstMessage {
		s.Title = DeriveTitle(text)
	}
	history := historyTurns(s.Messages)
	title := s.Title
	m.mu.Unlock()

	// persistence is best effort; the conversation is never rolled back
	if err := m.storage.AppendMessage(ctx, sessionID, userMsg); err != nil {
		m.logger.Printf("persist user message: %v", err)
	}
	if firstMessage {
		if err := m.storage.Rename(ctx, sessionID, title); err != nil {
			m.logger.Printf("persist title: %v", err)
		}
	}

	resp, err := m.asker.Ask(context.WithoutCancel(ctx), history)
	if err != nil {
		m.setIdle()
		return SendResult{}, fmt.Errorf("send message: %w", err)
	}

	m.setState(StateStreaming)
	placeholderID := m.appendPlaceholder(sessionID)

	aborted := false
	for chunk := range StreamWords(ctx, resp.Answer, m.MinDelay, m.MaxDelay) {
		content := chunk.Text
		if chunk.Aborted {
			aborted = true
			if content != "" {
				content += " "
			}
			content += StopMarker
		}
		m.updateMessage(sessionID, placeholderID, content)
	}

	var final Message
	m.mu.Lock()
	if s := m.find(sessionID); s != nil {
		for i := range s.Messages {
			if s.Messages[i].ID == placeholderID {
				if !aborted {
					// sources attach only once the full text is revealed
					s.Messages[i].Sources = fromWireSources(resp.Sources)
				}
				final = s.Messages[i]
				s.UpdatedAt = time.Now()
				break
			}
		}
	}
	m.state = StateIdle
	m.mu.Unlock()

	if err := m.storage.AppendMessage(ctx, sessionID, final); err != nil {
		m.logger.Printf("persist assistant message: %v", err)
	}
	return SendResult{Message: final, Aborted: aborted}, nil
}

func (m *Manager) find(id string) *Session {
	for i := range m.sessions {
		if m.sessions[i].ID == id {
			return &m.sessions[i]
		}
	}
	return nil
}

func (m *Manager) setIdle() { m.setState(StateIdle) }

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) appendPlaceholder(sessionID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	if s := m.find(sessionID); s != nil {
		s.Messages = append(s.Messages, Message{ID: id, Role: "assistant", Timestamp: time.Now()})
	}
	return id
}

func (m *Manager) updateMessage(sessionID, messageID, content string) {
	m.mu.Lock()
	var snapshot *Session
	if s := m.find(sessionID); s != nil {
		for i := range s.Messages {
			if s.Messages[i].ID == messageID {
				s.Messages[i].Content = content
				break
			}
		}
		copied := *s
		snapshot = &copied
	}
	onUpdate := m.OnUpdate
	m.mu.Unlock()
	if onUpdate != nil && snapshot != nil {
		onUpdate(*snapshot)
	}
}

func historyTurns(messages []Message) []asistan.Message {
	out := make([]asistan.Message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, asistan.Message{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func fromWireSources(sources []asistan.Source) []asistan.Source {
	if len(sources) == 0 {
		return nil
	}
	return append([]asistan.Source{}, sources...)
}
