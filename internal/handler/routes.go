package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers agrupa os handlers registrados no router
type Handlers struct {
	Obras     *ObraHandler
	Dashboard *DashboardHandler
	History   *HistoryHandler
	Health    *HealthHandler
	WebSocket *WebSocketHandler
}

// RegisterRoutes registra health, métricas, websocket e a API /api/v1.
// Middlewares aplicados no grupo da API vão em apiMiddleware.
func RegisterRoutes(r *gin.Engine, h Handlers, apiMiddleware ...gin.HandlerFunc) {
	// Health check (público)
	r.GET("/health/live", h.Health.LivenessCheck)
	r.GET("/health/ready", h.Health.ReadinessCheck)
	r.GET("/metrics", h.Health.GetMetrics)

	r.GET("/ws", h.WebSocket.HandleConnection)
	r.GET("/ws/stats", h.WebSocket.GetConnectionStats)

	api := r.Group("/api/v1")
	api.Use(apiMiddleware...)
	{
		api.GET("/status", h.Obras.Status)

		api.GET("/obras", h.Obras.ListProjects)
		api.POST("/obras", h.Obras.CreateProject)
		api.GET("/obras/:obra/frentes", h.Obras.ListFronts)

		api.GET("/frentes", h.Obras.ListRecords)
		api.POST("/frentes", h.Obras.CreateFront)
		api.PUT("/frentes/:obra/:frente", h.Obras.UpdateFront)
		api.DELETE("/frentes/:obra/:frente", h.Obras.DeleteFront)
		api.PUT("/frentes/:obra/:frente/realizado", h.Obras.RecordActual)
		api.GET("/frentes/:obra/:frente/semanas", h.Obras.Weeks)
		api.GET("/frentes/:obra/:frente/curva", h.Obras.Curves)

		api.GET("/semanas", h.Obras.WeeksInRange)
		api.GET("/filtros", h.Obras.GetFilters)
		api.PUT("/filtros", h.Obras.SetFilters)
		api.POST("/persistir", h.Obras.Persist)

		api.GET("/dashboard", h.Dashboard.Dashboard)
		api.GET("/evolucao", h.Dashboard.Evolution)
		api.GET("/exportar", h.Dashboard.Export)

		api.GET("/historico", h.History.ListHistory)
		api.GET("/historico/:id", h.History.GetHistory)
	}
}
