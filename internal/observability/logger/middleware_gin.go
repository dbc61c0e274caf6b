// Package logger provides request logging for the gin engine.
package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func GinMiddleware(log *zap.Logger) gin.HandlerFunc {
	access := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			access.Error("request", fields...)
		case c.Writer.Status() >= 400:
			access.Warn("request", fields...)
		default:
			access.Info("request", fields...)
		}
	}
}
