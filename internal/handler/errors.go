package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/cleberrangel/painel-obras/internal/repository"
	"github.com/cleberrangel/painel-obras/internal/service"
	"github.com/gin-gonic/gin"
)

// respondError converte erros do domínio no status HTTP correspondente
func respondError(c *gin.Context, err error) {
	var ve *model.ValidationError

	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "Dados inválidos",
			Details: ve.Error(),
		})

	case errors.Is(err, model.ErrFrontNotFound),
		errors.Is(err, model.ErrProjectNotFound),
		errors.Is(err, repository.ErrHistoryNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Success: false,
			Error:   "Recurso não encontrado",
			Details: err.Error(),
		})

	case errors.Is(err, service.ErrHistoryDisabled):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Error:   "Histórico indisponível",
			Details: err.Error(),
		})

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusRequestTimeout, model.ErrorResponse{
			Success: false,
			Error:   "Requisição cancelada",
		})

	default:
		logger.FromGin(c).Error().Err(err).Str("path", c.Request.URL.Path).Msg("Erro inesperado")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "Erro interno",
			Details: err.Error(),
		})
	}
}

// badRequest responde 400 para corpo ou parâmetro malformado
func badRequest(c *gin.Context, message string, err error) {
	resp := model.ErrorResponse{Success: false, Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, model.Response{Success: true, Data: data})
}

func okMessage(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, model.Response{Success: true, Message: message, Data: data})
}
