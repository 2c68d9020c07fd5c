package session

import (
	"encoding/json"
	"time"

	"github.com/tesvikportal/asistan/pkg/asistan"
)

// Message is one conversation turn held by the manager.
type Message struct {
	ID           string            `json:"id"`
	Role         string            `json:"role"`
	Content      string            `json:"content"`
	Timestamp    time.Time         `json:"timestamp"`
	Sources      []asistan.Source  `json:"sources,omitempty"`
	SupportCards []json.RawMessage `json:"supportCards,omitempty"`
}

// Session is a full conversation owned by one user or one local profile.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultTitle is used until the first user message supplies one.
const DefaultTitle = "Yeni sohbet"

// titleLimit is the maximum title length in runes before truncation.
const titleLimit = 50

// DeriveTitle builds a session title from the first user message: the first
// 50 characters, plus "..." when truncated.
func DeriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= titleLimit {
		return text
	}
	return string(runes[:titleLimit]) + "..."
}
