package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cleberrangel/painel-obras/internal/middleware"
	"github.com/cleberrangel/painel-obras/internal/progress"
	"github.com/cleberrangel/painel-obras/internal/service"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DashboardHandler expõe as visões do painel
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler cria um novo handler do painel
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// filtersFromQuery lê obra, frente e escala; ausentes usam a seleção corrente
func filtersFromQuery(c *gin.Context) service.Filters {
	return service.Filters{
		Project:   middleware.SanitizeName(c.Query("obra")),
		Front:     middleware.SanitizeName(c.Query("frente")),
		Timescale: progress.Granularity(middleware.SanitizeName(c.Query("escala"))),
	}
}

// Dashboard retorna cartões, indicador, gráficos e tabela da seleção
// @Summary      Painel
// @Tags         painel
// @Produce      json
// @Param        obra query string false "Obra"
// @Param        frente query string false "Frente ou Todos"
// @Param        escala query string false "semanal, mensal ou geral"
// @Success      200 {object} model.Response
// @Router       /api/v1/dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	view, err := h.dashboard.View(c.Request.Context(), filtersFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, view)
}

// Evolution retorna a agregação por período da seleção
func (h *DashboardHandler) Evolution(c *gin.Context) {
	ok(c, h.dashboard.Evolution(filtersFromQuery(c)))
}

// Export gera a planilha Excel da seleção
// @Summary      Exporta planilha
// @Tags         painel
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Failure      500 {object} model.ErrorResponse
// @Router       /api/v1/exportar [get]
func (h *DashboardHandler) Export(c *gin.Context) {
	buf, f, err := h.dashboard.Export(c.Request.Context(), filtersFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}

	name := f.Project
	if name == "" {
		name = "obras"
	}
	filename := middleware.SanitizeFilename(fmt.Sprintf("painel_%s_%s.xlsx", name, time.Now().Format("20060102_150405")))

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
