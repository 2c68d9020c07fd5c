package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage is the persistence backend behind the manager, selected once at
// construction. The remote implementation does row-level operations against
// the API; the local implementation rewrites a single JSON document on every
// mutation.
type Storage interface {
	Load(ctx context.Context) ([]Session, error)
	Create(ctx context.Context, s Session) error
	Rename(ctx context.Context, sessionID, title string) error
	AppendMessage(ctx context.Context, sessionID string, m Message) error
	Delete(ctx context.Context, sessionID string) error
}

// FileStorage persists the whole session list as one JSON file, the local
// profile analogue of browser local storage. An absent or corrupt file reads
// as an empty list.
type FileStorage struct {
	path     string
	mu       sync.Mutex
	sessions []Session
}

// NewFileStorage creates a file-backed storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load(ctx context.Context) ([]Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := os.ReadFile(f.path)
	if err != nil {
		f.sessions = nil
		return nil, nil
	}
	var sessions []Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		// corrupt store reads as empty, never an error
		f.sessions = nil
		return nil, nil
	}
	f.sessions = sessions
	return append([]Session{}, sessions...), nil
}

func (f *FileStorage) Create(ctx context.Context, s Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, s)
	return f.flush()
}

func (f *FileStorage) Rename(ctx context.Context, sessionID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].ID == sessionID {
			f.sessions[i].Title = title
			return f.flush()
		}
	}
	return fmt.Errorf("session %s not found", sessionID)
}

func (f *FileStorage) AppendMessage(ctx context.Context, sessionID string, m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sessions {
		if f.sessions[i].ID == sessionID {
			f.sessions[i].Messages = append(f.sessions[i].Messages, m)
			f.sessions[i].UpdatedAt = m.Timestamp
			return f.flush()
		}
	}
	return fmt.Errorf("session %s not found", sessionID)
}

func (f *FileStorage) Delete(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.sessions[:0]
	for _, s := range f.sessions {
		if s.ID != sessionID {
			out = append(out, s)
		}
	}
	f.sessions = out
	return f.flush()
}

// flush rewrites the whole document. Callers hold the mutex.
func (f *FileStorage) flush() error {
	raw, err := json.Marshal(f.sessions)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(f.path, raw, 0o644)
}
