package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/model"
	"github.com/cleberrangel/painel-obras/internal/progress"
	"github.com/cleberrangel/painel-obras/internal/repository"
)

// ErrHistoryDisabled indica que não há banco configurado para o histórico
var ErrHistoryDisabled = errors.New("histórico de gravações desabilitado")

// HistoryStore é o repositório de histórico de gravações
type HistoryStore interface {
	Create(ctx context.Context, entry repository.SaveHistory) (*repository.SaveHistory, error)
	List(ctx context.Context) ([]repository.SaveHistory, error)
	GetByID(ctx context.Context, id int) (*repository.SaveHistory, error)
	Count(ctx context.Context) (int, error)
	Cleanup(ctx context.Context) (int64, error)
}

// HistoryService registra cada gravação do documento; sem repositório vira no-op
type HistoryService struct {
	store      HistoryStore
	maxRecords int
}

// NewHistoryService cria o serviço; store nil desabilita o histórico
func NewHistoryService(store HistoryStore) *HistoryService {
	return &HistoryService{
		store:      store,
		maxRecords: repository.HistoryRetention,
	}
}

// Enabled indica se há banco configurado
func (s *HistoryService) Enabled() bool {
	return s != nil && s.store != nil
}

// Record registra a gravação com o documento exatamente como foi para o disco
func (s *HistoryService) Record(ctx context.Context, records []model.WorkFront, path string) error {
	if !s.Enabled() {
		return nil
	}

	var buf bytes.Buffer
	if err := repository.Encode(&buf, records); err != nil {
		return err
	}

	entry, err := s.store.Create(ctx, repository.SaveHistory{
		RecordCount:  len(progress.Visible(records)),
		ProjectCount: len(progress.Projects(records)),
		FilePath:     path,
		RequestID:    logger.GetRequestID(ctx),
		Document:     json.RawMessage(buf.Bytes()),
	})
	if err != nil {
		return err
	}

	logger.Get(ctx).Info().
		Int("history_id", entry.ID).
		Int("records", entry.RecordCount).
		Msg("Gravação registrada no histórico")

	s.cleanupIfNeeded(ctx)
	return nil
}

// List retorna as últimas gravações (sem o documento)
func (s *HistoryService) List(ctx context.Context) ([]repository.SaveHistory, error) {
	if !s.Enabled() {
		return nil, ErrHistoryDisabled
	}
	return s.store.List(ctx)
}

// Get retorna uma gravação com o documento completo
func (s *HistoryService) Get(ctx context.Context, id int) (*repository.SaveHistory, error) {
	if !s.Enabled() {
		return nil, ErrHistoryDisabled
	}
	return s.store.GetByID(ctx, id)
}

// cleanupIfNeeded mantém no máximo maxRecords gravações
func (s *HistoryService) cleanupIfNeeded(ctx context.Context) {
	log := logger.Get(ctx)

	count, err := s.store.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Erro ao verificar contagem de histórico")
		return
	}

	if count > s.maxRecords {
		log.Info().Int("count", count).Int("max", s.maxRecords).Msg("Iniciando limpeza de histórico")
		if _, err := s.store.Cleanup(ctx); err != nil {
			log.Error().Err(err).Msg("Erro ao limpar histórico antigo")
		}
	}
}
