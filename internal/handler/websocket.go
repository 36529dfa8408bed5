package handler

import (
	"github.com/cleberrangel/painel-obras/internal/service"
	"github.com/cleberrangel/painel-obras/internal/websocket"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler handles WebSocket-related HTTP requests
type WebSocketHandler struct {
	hub *websocket.Hub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// HandleConnection handles WebSocket connection upgrades
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	h.hub.ServeWS(c)
}

// GetConnectionStats returns WebSocket connection statistics
func (h *WebSocketHandler) GetConnectionStats(c *gin.Context) {
	ok(c, gin.H{
		"total_connections": h.hub.ConnectionCount(),
		"clients":           h.hub.ClientIDs(),
	})
}

// BroadcastChanges avisa os clientes conectados a cada alteração de dados e
// responde pedidos de "estado" com o status da coleção.
// Mudanças de filtro não são repassadas.
func BroadcastChanges(obras *service.ObraService, hub *websocket.Hub) {
	hub.SetStatusProvider(func() interface{} { return obras.Status() })
	obras.Subscribe(func(change service.Change) {
		if change.Operation == service.OperationFilters {
			return
		}
		hub.BroadcastDataChanged(change.Operation, change.Project, change.Front)
	})
}
