package asistan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP client for the assistant API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithToken sets a bearer token obtained out of band.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates and stores the bearer token on the client.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	if err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

// Ask sends the full conversation and returns the assistant answer.
func (c *Client) Ask(ctx context.Context, messages []Message) (ChatResponse, error) {
	var out ChatResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/chat", map[string]interface{}{"messages": messages}, &out)
	return out, err
}

// CreateSession creates a session. ID may be empty to let the server choose.
func (c *Client) CreateSession(ctx context.Context, id, title string) (Session, error) {
	var out Session
	err := c.doJSON(ctx, http.MethodPost, "/api/sessions", map[string]string{"id": id, "title": title}, &out)
	return out, err
}

// ListSessions returns the caller's sessions, most recently updated first.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var out []Session
	err := c.doJSON(ctx, http.MethodGet, "/api/sessions", nil, &out)
	return out, err
}

// ListMessages returns a session's messages in conversation order.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	var out []ChatMessage
	err := c.doJSON(ctx, http.MethodGet, "/api/sessions/"+sessionID+"/messages", nil, &out)
	return out, err
}

// AppendMessage appends a message row to a session.
func (c *Client) AppendMessage(ctx context.Context, sessionID string, msg ChatMessage) error {
	return c.doJSON(ctx, http.MethodPost, "/api/sessions/"+sessionID+"/messages", map[string]interface{}{
		"role":         msg.Role,
		"content":      msg.Content,
		"sources":      msg.Sources,
		"supportCards": msg.SupportCards,
	}, nil)
}

// RenameSession updates a session title.
func (c *Client) RenameSession(ctx context.Context, sessionID, title string) error {
	return c.doJSON(ctx, http.MethodPut, "/api/sessions/"+sessionID, map[string]string{"title": title}, nil)
}

// DeleteSession removes a session and its messages.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/sessions/"+sessionID, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewBuffer(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env errorEnvelope
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, env.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
