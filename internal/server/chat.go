package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Oscar8918/agente-maf/internal/store"
)

// Runner is the slice of the gateway the HTTP layer needs.
type Runner interface {
	RunTurn(ctx context.Context, threadID, userID, message string) (string, string, error)
	DeleteThread(ctx context.Context, threadID string) (bool, error)
}

// OpsMetricsSource feeds the ops endpoint. *store.Store satisfies it.
type OpsMetricsSource interface {
	Metrics24h(ctx context.Context) (store.OpsMetrics, error)
}

// ChatHandler exposes the conversational API.
type ChatHandler struct {
	Gateway Runner
	Metrics OpsMetricsSource
}

func (h *ChatHandler) Register(e *echo.Echo) {
	e.POST("/chat", h.chat)
	e.DELETE("/threads/:id", h.deleteThread)
	e.GET("/ops/metrics", h.opsMetrics)
}

type chatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
}

type chatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

func (h *ChatHandler) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	reply, threadID, err := h.Gateway.RunTurn(c.Request().Context(), req.ThreadID, req.UserID, req.Message)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, chatResponse{Response: reply, ThreadID: threadID})
}

func (h *ChatHandler) deleteThread(c echo.Context) error {
	id := c.Param("id")
	deleted, err := h.Gateway.DeleteThread(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !deleted {
		return echo.NewHTTPError(http.StatusNotFound, "thread not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted": true, "thread_id": id})
}

func (h *ChatHandler) opsMetrics(c echo.Context) error {
	if h.Metrics == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "metrics store not configured")
	}
	m, err := h.Metrics.Metrics24h(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}
