package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"aligner-bot/internal/handlers"
)

type sessions int

func (s sessions) Len() int { return int(s) }

func newTestRouter(webhook gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Deps{
		Health:  handlers.NewHealthHandler("group", "memory", sessions(2)),
		Webhook: webhook,
		Log:     zerolog.Nop(),
	})
}

func do(r http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, strings.NewReader("{}")))
	return w
}

func TestHealthz(t *testing.T) {
	w := do(newTestRouter(nil), http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var body handlers.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "group", body.Mode)
	require.Equal(t, 2, body.ActiveSessions)
}

func TestMetrics(t *testing.T) {
	w := do(newTestRouter(nil), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "go_goroutines")
}

func TestWebhookRouteOnlyWhenEnabled(t *testing.T) {
	require.Equal(t, http.StatusNotFound, do(newTestRouter(nil), http.MethodPost, "/webhook/bot/x").Code)

	called := false
	r := newTestRouter(func(c *gin.Context) {
		called = true
		c.Status(http.StatusOK)
	})
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/webhook/bot/x").Code)
	require.True(t, called)
}

func TestRecoveryReturns500(t *testing.T) {
	r := newTestRouter(func(c *gin.Context) { panic("boom") })
	require.Equal(t, http.StatusInternalServerError, do(r, http.MethodPost, "/webhook/bot/x").Code)
}
