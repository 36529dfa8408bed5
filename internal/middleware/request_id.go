package middleware

import (
	"time"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderRequestID é o header HTTP para request ID
	HeaderRequestID = "X-Request-ID"
	// HeaderTraceID correlaciona a requisição com o broadcast que ela dispara
	HeaderTraceID = "X-Trace-ID"
)

// RequestID prepara o logger da requisição: ids de correlação, obra e frente
// da rota quando houver, e o registro de conclusão com status e latência.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := headerOrNew(c, HeaderRequestID, 8)
		traceID := headerOrNew(c, HeaderTraceID, 0)

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		ctx = logger.WithTraceID(ctx, traceID)
		if project := c.Param("obra"); project != "" {
			ctx = logger.WithWorkFront(ctx, SanitizeName(project), SanitizeName(c.Param("frente")))
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		log := logger.Get(ctx)
		log.Debug().
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("query", c.Request.URL.RawQuery).
			Str("client_ip", c.ClientIP()).
			Msg("Requisição recebida")

		c.Next()

		completionEvent(log, c.Writer.Status()).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Int("status", c.Writer.Status()).
			Int("size", c.Writer.Size()).
			Float64("latency_ms", float64(time.Since(start).Microseconds())/1000).
			Msg("Requisição concluída")
	}
}

// headerOrNew usa o id enviado pelo cliente (saneado) ou gera um uuid;
// size > 0 trunca o id gerado
func headerOrNew(c *gin.Context, header string, size int) string {
	if id := SanitizeID(c.GetHeader(header)); id != "" {
		return id
	}
	id := uuid.New().String()
	if size > 0 && size < len(id) {
		id = id[:size]
	}
	return id
}

func completionEvent(log *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return log.Error()
	case status >= 400:
		return log.Warn()
	default:
		return log.Info()
	}
}
