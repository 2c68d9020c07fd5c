package session

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/tesvikportal/asistan/pkg/asistan"
)

// RemoteStorage persists sessions through the authenticated API. Session
// creation is awaited for cross-device consistency; message appends are
// fired in the background and failures are logged, not surfaced; the
// in-memory conversation is never rolled back over a persistence error.
type RemoteStorage struct {
	Client *asistan.Client
	Logger *log.Logger
}

func NewRemoteStorage(client *asistan.Client) *RemoteStorage {
	return &RemoteStorage{
		Client: client,
		Logger: log.New(log.Writer(), "[SESS] ", log.LstdFlags),
	}
}

func (r *RemoteStorage) Load(ctx context.Context) ([]Session, error) {
	rows, err := r.Client.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Session, 0, len(rows))
	for _, row := range rows {
		msgs, err := r.Client.ListMessages(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, fromWireSession(row, msgs))
	}
	return out, nil
}

func (r *RemoteStorage) Create(ctx context.Context, s Session) error {
	_, err := r.Client.CreateSession(ctx, s.ID, s.Title)
	return err
}

func (r *RemoteStorage) Rename(ctx context.Context, sessionID, title string) error {
	return r.Client.RenameSession(ctx, sessionID, title)
}

func (r *RemoteStorage) AppendMessage(ctx context.Context, sessionID string, m Message) error {
	wire := toWireMessage(m)
	go func() {
		bg, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.Client.AppendMessage(bg, sessionID, wire); err != nil {
			r.Logger.Printf("append message to %s failed: %v", sessionID, err)
		}
	}()
	return nil
}

func (r *RemoteStorage) Delete(ctx context.Context, sessionID string) error {
	return r.Client.DeleteSession(ctx, sessionID)
}

func fromWireSession(row asistan.Session, msgs []asistan.ChatMessage) Session {
	s := Session{ID: row.ID, Title: row.Title}
	s.CreatedAt, _ = time.Parse(time.RFC3339, row.CreatedAt)
	s.UpdatedAt, _ = time.Parse(time.RFC3339, row.UpdatedAt)
	for _, m := range msgs {
		msg := Message{ID: m.ID, Role: m.Role, Content: m.Content}
		msg.Timestamp, _ = time.Parse(time.RFC3339, m.CreatedAt)
		if len(m.Sources) > 0 {
			_ = json.Unmarshal(m.Sources, &msg.Sources)
		}
		if len(m.SupportCards) > 0 {
			_ = json.Unmarshal(m.SupportCards, &msg.SupportCards)
		}
		s.Messages = append(s.Messages, msg)
	}
	return s
}

func toWireMessage(m Message) asistan.ChatMessage {
	wire := asistan.ChatMessage{Role: m.Role, Content: m.Content}
	if len(m.Sources) > 0 {
		wire.Sources, _ = json.Marshal(m.Sources)
	}
	if len(m.SupportCards) > 0 {
		wire.SupportCards, _ = json.Marshal(m.SupportCards)
	}
	return wire
}
