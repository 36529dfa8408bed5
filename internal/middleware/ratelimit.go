package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/metrics"
	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter limita requisições por IP de origem
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter cria o limitador com perMinute requisições por minuto por IP;
// zero ou negativo desliga o limite
func NewRateLimiter(perMinute int) *RateLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idleTTL:  10 * time.Minute,
	}
}

// Allow consome um token do IP informado
func (r *RateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	v, ok := r.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[ip] = v
	}
	v.lastSeen = now

	// descarta IPs ociosos para o mapa não crescer sem limite
	for key, other := range r.limiters {
		if now.Sub(other.lastSeen) > r.idleTTL {
			delete(r.limiters, key)
		}
	}

	return v.limiter.Allow()
}

// Middleware rejeita com 429 quando o IP excede o limite
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		metrics.Get().IncrementRateLimited()
		logger.FromGin(c).Warn().Str("client_ip", c.ClientIP()).Msg("Limite de requisições excedido")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
			Success: false,
			Error:   "Limite de requisições excedido",
			Details: "tente novamente em instantes",
		})
	}
}
