package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tesvikportal/asistan/internal/runtime"
	"github.com/tesvikportal/asistan/internal/store"
)

// SessionsHandler is the remote half of the dual-persistence contract:
// session and message rows for authenticated users.
type SessionsHandler struct {
	Store *store.Store
}

func (h *SessionsHandler) Register(g *echo.Group, secret []byte) {
	g.Use(runtime.EchoAuthMiddleware(secret))
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id/messages", h.messages)
	g.POST("/:id/messages", h.appendMessage)
	g.PUT("/:id", h.rename)
	g.DELETE("/:id", h.remove)
}

func (h *SessionsHandler) list(c echo.Context) error {
	userID := c.Get("user_id").(string)
	items, err := h.Store.ListChatSessions(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]SessionResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toSessionResponse(s))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SessionsHandler) create(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Yeni sohbet"
	}
	rec, err := h.Store.CreateChatSession(c.Request().Context(), id, userID, title)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, toSessionResponse(rec))
}

func (h *SessionsHandler) messages(c echo.Context) error {
	userID := c.Get("user_id").(string)
	items, err := h.Store.ListChatMessages(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]MessageResponse, 0, len(items))
	for _, m := range items {
		out = append(out, MessageResponse{
			ID:           m.ID,
			Role:         m.Role,
			Content:      m.Content,
			Sources:      m.Sources,
			SupportCards: m.SupportCards,
			CreatedAt:    m.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *SessionsHandler) appendMessage(c echo.Context) error {
	userID := c.Get("user_id").(string)
	sessionID := c.Param("id")
	if _, err := h.Store.GetChatSession(c.Request().Context(), sessionID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	var req AppendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Role != "user" && req.Role != "assistant" {
		return echo.NewHTTPError(http.StatusBadRequest, "role must be user or assistant")
	}
	id, err := h.Store.AppendChatMessage(c.Request().Context(), store.MessageRecord{
		SessionID:    sessionID,
		Role:         req.Role,
		Content:      req.Content,
		Sources:      req.Sources,
		SupportCards: req.SupportCards,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func (h *SessionsHandler) rename(c echo.Context) error {
	userID := c.Get("user_id").(string)
	var req RenameSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Title) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title required")
	}
	if err := h.Store.UpdateChatSessionTitle(c.Request().Context(), c.Param("id"), userID, req.Title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusOK)
}

func (h *SessionsHandler) remove(c echo.Context) error {
	userID := c.Get("user_id").(string)
	if err := h.Store.DeleteChatSession(c.Request().Context(), c.Param("id"), userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusOK)
}

func toSessionResponse(s store.SessionRecord) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}
