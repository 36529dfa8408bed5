package handler

import (
	"net/http"

	"github.com/cleberrangel/painel-obras/internal/middleware"
	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/cleberrangel/painel-obras/internal/progress"
	"github.com/cleberrangel/painel-obras/internal/service"
	"github.com/gin-gonic/gin"
)

// ObraHandler manipula cadastro de obras, frentes e lançamentos
type ObraHandler struct {
	obras     *service.ObraService
	dashboard *service.DashboardService
}

// NewObraHandler cria um novo handler de obras
func NewObraHandler(obras *service.ObraService, dashboard *service.DashboardService) *ObraHandler {
	return &ObraHandler{
		obras:     obras,
		dashboard: dashboard,
	}
}

func frontParams(c *gin.Context) (string, string) {
	return middleware.SanitizeName(c.Param("obra")), middleware.SanitizeName(c.Param("frente"))
}

// Status retorna o estado da coleção
// @Summary      Estado dos dados
// @Tags         obras
// @Produce      json
// @Success      200 {object} model.Response
// @Router       /api/v1/status [get]
func (h *ObraHandler) Status(c *gin.Context) {
	ok(c, h.obras.Status())
}

// ListProjects lista as obras
// @Summary      Lista obras
// @Tags         obras
// @Produce      json
// @Success      200 {object} model.Response
// @Router       /api/v1/obras [get]
func (h *ObraHandler) ListProjects(c *gin.Context) {
	ok(c, h.obras.Projects())
}

// CreateProject cadastra uma obra
// @Summary      Cadastra obra
// @Tags         obras
// @Accept       json
// @Produce      json
// @Param        request body model.ProjectRequest true "Nome da obra"
// @Success      201 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Router       /api/v1/obras [post]
func (h *ObraHandler) CreateProject(c *gin.Context) {
	var req model.ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos", err)
		return
	}

	name := middleware.SanitizeName(req.Name)
	if err := h.obras.AddProject(c.Request.Context(), name); err != nil {
		respondError(c, err)
		return
	}
	okMessage(c, http.StatusCreated, "Obra cadastrada!", gin.H{"obra": name})
}

// ListFronts lista as frentes reais de uma obra
func (h *ObraHandler) ListFronts(c *gin.Context) {
	fronts, err := h.obras.Fronts(middleware.SanitizeName(c.Param("obra")))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, fronts)
}

// ListRecords lista as frentes recalculadas, opcionalmente de uma obra
func (h *ObraHandler) ListRecords(c *gin.Context) {
	records := progress.Visible(h.obras.Snapshot())
	if project := middleware.SanitizeName(c.Query("obra")); project != "" {
		records = progress.Scope(records, project, progress.AllFronts)
	}
	ok(c, records)
}

// CreateFront cadastra uma frente
// @Summary      Cadastra frente
// @Tags         frentes
// @Accept       json
// @Produce      json
// @Param        request body model.FrontRequest true "Dados da frente"
// @Success      201 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Failure      404 {object} model.ErrorResponse
// @Router       /api/v1/frentes [post]
func (h *ObraHandler) CreateFront(c *gin.Context) {
	var req model.FrontRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos", err)
		return
	}
	req.Project = middleware.SanitizeName(req.Project)
	req.Name = middleware.SanitizeName(req.Name)

	if err := h.obras.AddFront(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	okMessage(c, http.StatusCreated, "Frente adicionada!", gin.H{"obra": req.Project, "frente": req.Name})
}

// UpdateFront edita os dados cadastrais de uma frente
// @Summary      Edita frente
// @Tags         frentes
// @Accept       json
// @Produce      json
// @Param        obra path string true "Obra"
// @Param        frente path string true "Frente"
// @Param        request body model.FrontRequest true "Dados da frente"
// @Success      200 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Failure      404 {object} model.ErrorResponse
// @Router       /api/v1/frentes/{obra}/{frente} [put]
func (h *ObraHandler) UpdateFront(c *gin.Context) {
	project, name := frontParams(c)

	var req model.FrontRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos", err)
		return
	}
	req.Name = middleware.SanitizeName(req.Name)
	if req.Name == "" {
		req.Name = name
	}

	if err := h.obras.EditFront(c.Request.Context(), project, name, req); err != nil {
		respondError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "Frente atualizada!", gin.H{"obra": project, "frente": req.Name})
}

// DeleteFront exclui uma frente
func (h *ObraHandler) DeleteFront(c *gin.Context) {
	project, name := frontParams(c)

	if err := h.obras.DeleteFront(c.Request.Context(), project, name); err != nil {
		respondError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "Frente excluída!", nil)
}

// RecordActual lança o andamento semanal de uma frente
// @Summary      Lança andamento
// @Tags         frentes
// @Accept       json
// @Produce      json
// @Param        request body model.ActualRequest true "Realizado por semana"
// @Success      200 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Failure      404 {object} model.ErrorResponse
// @Router       /api/v1/frentes/{obra}/{frente}/realizado [put]
func (h *ObraHandler) RecordActual(c *gin.Context) {
	project, name := frontParams(c)

	var req model.ActualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos", err)
		return
	}

	if err := h.obras.RecordActual(c.Request.Context(), project, name, req.Values); err != nil {
		respondError(c, err)
		return
	}

	front, err := h.obras.Front(project, name)
	if err != nil {
		respondError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "Andamento salvo!", front)
}

// Weeks lista as semanas do período da frente com planejado e realizado
func (h *ObraHandler) Weeks(c *gin.Context) {
	project, name := frontParams(c)

	rows, err := h.dashboard.Weeks(project, name)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, rows)
}

// Curves retorna as curvas prevista e realizada de uma frente
func (h *ObraHandler) Curves(c *gin.Context) {
	project, name := frontParams(c)

	planned, actual, err := h.dashboard.Curves(project, name)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"previsto": planned, "realizado": actual})
}

// WeeksInRange lista as chaves de semana de um período
func (h *ObraHandler) WeeksInRange(c *gin.Context) {
	start, err := model.ParseDate(c.Query("inicio"))
	if err != nil {
		badRequest(c, "Parâmetro 'inicio' inválido", err)
		return
	}
	end, err := model.ParseDate(c.Query("fim"))
	if err != nil {
		badRequest(c, "Parâmetro 'fim' inválido", err)
		return
	}
	ok(c, progress.WeeksInRange(&start, &end))
}

// GetFilters retorna a seleção corrente do painel
func (h *ObraHandler) GetFilters(c *gin.Context) {
	ok(c, h.obras.Filters())
}

// SetFilters altera a seleção corrente do painel
func (h *ObraHandler) SetFilters(c *gin.Context) {
	var req model.FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados inválidos", err)
		return
	}

	filters, err := h.obras.SetFilters(req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, filters)
}

// Persist grava a coleção no arquivo de dados
// @Summary      Persiste dados
// @Tags         obras
// @Produce      json
// @Success      200 {object} model.Response
// @Failure      500 {object} model.ErrorResponse
// @Router       /api/v1/persistir [post]
func (h *ObraHandler) Persist(c *gin.Context) {
	if err := h.obras.Save(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	okMessage(c, http.StatusOK, "Dados salvos com sucesso!", h.obras.Status())
}
