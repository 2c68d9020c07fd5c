package server

import (
	"encoding/json"

	"github.com/tesvikportal/asistan/internal/chat"
)

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AuthSignupRequest represents the signup payload.
type AuthSignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthLoginRequest represents the login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ChatRequest is the retrieval/generation boundary request: the full
// conversation, last element being the new user turn.
type ChatRequest struct {
	Messages []chat.Turn `json:"messages"`
}

// ChatResponse mirrors chat.Result on the wire.
type ChatResponse struct {
	Answer  string        `json:"answer"`
	Sources []chat.Source `json:"sources"`
	Debug   chat.Debug    `json:"debug"`
}

// CreateSessionRequest creates a session with an optional explicit title.
type CreateSessionRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
}

// RenameSessionRequest updates a session title.
type RenameSessionRequest struct {
	Title string `json:"title"`
}

// SessionResponse is a session row on the wire.
type SessionResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AppendMessageRequest appends a message to a session.
type AppendMessageRequest struct {
	Role         string          `json:"role"`
	Content      string          `json:"content"`
	Sources      json.RawMessage `json:"sources,omitempty"`
	SupportCards json.RawMessage `json:"supportCards,omitempty"`
}

// MessageResponse is a message row on the wire.
type MessageResponse struct {
	ID           string          `json:"id"`
	Role         string          `json:"role"`
	Content      string          `json:"content"`
	Sources      json.RawMessage `json:"sources"`
	SupportCards json.RawMessage `json:"supportCards"`
	CreatedAt    string          `json:"created_at"`
}
