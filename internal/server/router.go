package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"aligner-bot/internal/handlers"
	"aligner-bot/internal/middleware"
)

// Deps are the pieces the HTTP surface exposes. Webhook may be nil when the
// bot long-polls.
type Deps struct {
	Health  *handlers.HealthHandler
	Webhook gin.HandlerFunc
	Log     zerolog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Log), middleware.RequestLogger(d.Log))
	r.NoRoute(handlers.NotFound)

	r.GET("/healthz", d.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if d.Webhook != nil {
		r.POST("/webhook/bot/:secret", d.Webhook)
	}
	return r
}
