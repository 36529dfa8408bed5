package handler

import (
	"strconv"

	"github.com/cleberrangel/painel-obras/internal/service"
	"github.com/gin-gonic/gin"
)

// HistoryHandler expõe o histórico de gravações
type HistoryHandler struct {
	history *service.HistoryService
}

// NewHistoryHandler cria um novo handler de histórico
func NewHistoryHandler(history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

// ListHistory retorna as últimas gravações; sem banco informa enabled=false
// @Summary      Histórico de gravações
// @Tags         historico
// @Produce      json
// @Success      200 {object} model.Response
// @Router       /api/v1/historico [get]
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	if !h.history.Enabled() {
		ok(c, gin.H{"enabled": false, "entries": []interface{}{}})
		return
	}

	entries, err := h.history.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"enabled": true, "entries": entries})
}

// GetHistory retorna uma gravação com o documento completo
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "ID inválido", err)
		return
	}

	entry, err := h.history.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, entry)
}
