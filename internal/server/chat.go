package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tesvikportal/asistan/internal/chat"
)

// ChatHandler exposes the retrieval/generation boundary.
type ChatHandler struct {
	Service *chat.Service
}

func (h *ChatHandler) Register(g *echo.Group) {
	g.POST("", h.chat)
}

// chat runs one turn of the assistant pipeline.
//
//	@Summary		Chat turn
//	@Description	Sends full message history, returns the assistant answer with sources
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ChatRequest	true	"Conversation so far, last element is the new user turn"
//	@Success		200		{object}	ChatResponse
//	@Failure		400		{object}	HTTPError
//	@Failure		500		{object}	HTTPError
//	@Router			/api/chat [post]
func (h *ChatHandler) chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Messages) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "messages required")
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" || strings.TrimSpace(last.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "last message must be a non-empty user turn")
	}

	start := time.Now()
	result, err := h.Service.Answer(c.Request().Context(), req.Messages)
	chatTurnSeconds.Observe(time.Since(start).Seconds())
	if err != nil {
		chatTurnsTotal.WithLabelValues("error").Inc()
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	switch {
	case result.Debug.IsCasual:
		chatTurnsTotal.WithLabelValues("casual").Inc()
	case result.Debug.MatchCount == 0:
		chatTurnsTotal.WithLabelValues("no_match").Inc()
		chatMatchCount.Observe(0)
	default:
		chatTurnsTotal.WithLabelValues("answered").Inc()
		chatMatchCount.Observe(float64(result.Debug.MatchCount))
	}

	return c.JSON(http.StatusOK, ChatResponse{
		Answer:  result.Answer,
		Sources: result.Sources,
		Debug:   result.Debug,
	})
}
