package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware registra contadores por requisição e por rota
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start).Milliseconds()
		statusCode := c.Writer.Status()

		metrics.Get().IncrementRequests(statusCode < 400, latency)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.Get().TrackEndpoint(path, c.Request.Method, statusCode, latency)
	}
}

// AuditMiddleware registra no log de auditoria as requisições que alteram dados
func AuditMiddleware(prefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if !strings.HasPrefix(path, prefix) {
			return
		}
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			return
		}

		logger.AuditRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
			c.ClientIP(),
		)
	}
}
