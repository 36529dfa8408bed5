package handler

import (
	"net/http"
	"time"

	"github.com/cleberrangel/painel-obras/internal/database"
	"github.com/cleberrangel/painel-obras/internal/metrics"
	"github.com/cleberrangel/painel-obras/internal/service"
	"github.com/cleberrangel/painel-obras/internal/websocket"
	"github.com/gin-gonic/gin"
)

type poolStatsProvider interface {
	PoolStats() database.PoolStats
}

// HealthHandler handles health check and metrics endpoints
type HealthHandler struct {
	db        metrics.Pinger
	dataFile  string
	wsHub     *websocket.Hub
	dashboard *service.DashboardService
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler; db may be nil when history is disabled
func NewHealthHandler(db metrics.Pinger, dataFile string, wsHub *websocket.Hub, dashboard *service.DashboardService, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		dataFile:  dataFile,
		wsHub:     wsHub,
		dashboard: dashboard,
		version:   version,
		startTime: time.Now(),
	}
}

// LivenessCheck returns basic liveness status
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck returns readiness status including dependencies
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} metrics.HealthCheck
// @Failure 503 {object} metrics.HealthCheck
// @Router /health/ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	components := make(map[string]metrics.HealthStatus)

	components["data_file"] = metrics.CheckDataFileHealth(h.dataFile)
	components["memory"] = metrics.CheckMemoryHealth(512)
	if h.db != nil {
		components["database"] = metrics.CheckDatabaseHealth(c.Request.Context(), h.db)
	}
	if h.wsHub != nil {
		components["websocket"] = metrics.HealthStatus{Status: metrics.StatusHealthy}
	}

	overallStatus := metrics.DetermineOverallStatus(components)

	healthCheck := metrics.HealthCheck{
		Status:     overallStatus,
		Version:    h.version,
		Uptime:     time.Since(h.startTime).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == metrics.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, healthCheck)
}

// GetMetrics returns application metrics
// @Summary Get application metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} metrics.MetricsSnapshot
// @Router /metrics [get]
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	snapshot := metrics.Get().Snapshot()
	if pool, ok := h.db.(poolStatsProvider); ok {
		stats := pool.PoolStats()
		snapshot.DatabasePool = &stats
	}
	if h.dashboard != nil {
		if stats, ok := h.dashboard.CacheStats(); ok {
			snapshot.ViewCache = &stats
		}
	}
	c.JSON(http.StatusOK, snapshot)
}
