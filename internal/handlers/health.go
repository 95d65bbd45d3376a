package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	Mode           string `json:"mode"`
	Store          string `json:"store"`
	ActiveSessions int    `json:"active_sessions"`
}

// SessionCounter reports how many kudos conversations are open.
type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	mode     string
	store    string
	sessions SessionCounter
}

func NewHealthHandler(mode, store string, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{mode: mode, store: store, sessions: sessions}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		Mode:           h.mode,
		Store:          h.store,
		ActiveSessions: h.sessions.Len(),
	})
}

func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
}
