package asistan

import "encoding/json"

// Message is a role-tagged conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source is a citation record attached to an assistant answer.
type Source struct {
	Index          int      `json:"index"`
	Question       string   `json:"question"`
	Variants       []string `json:"variants"`
	Similarity     float64  `json:"similarity"`
	MatchType      string   `json:"matchType"`
	SourceDocument string   `json:"source"`
}

// Debug carries pipeline diagnostics for a chat turn.
type Debug struct {
	IsCasual   bool      `json:"isCasual"`
	MatchCount int       `json:"matchCount"`
	Scores     []float64 `json:"scores,omitempty"`
}

// ChatResponse is the answer for one chat turn.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
	Debug   Debug    `json:"debug"`
}

// Session is a chat session row.
type Session struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ChatMessage is a persisted message row.
type ChatMessage struct {
	ID           string          `json:"id"`
	Role         string          `json:"role"`
	Content      string          `json:"content"`
	Sources      json.RawMessage `json:"sources"`
	SupportCards json.RawMessage `json:"supportCards"`
	CreatedAt    string          `json:"created_at"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
