package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"aligner-bot/internal/sentryutil"
)

// Recovery turns a handler panic into a 500 and reports it.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error().Interface("panic", r).Str("path", c.FullPath()).Msg("recovered panic in http handler")
			sentryutil.CapturePanic(r, map[string]string{"path": c.FullPath()})
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}()
		c.Next()
	}
}
