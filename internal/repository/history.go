package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cleberrangel/painel-obras/internal/database"
	"github.com/cleberrangel/painel-obras/internal/logger"
)

// ErrHistoryNotFound indica entrada de histórico inexistente
var ErrHistoryNotFound = errors.New("registro de histórico não encontrado")

// HistoryLimit é a quantidade de entradas devolvidas pela listagem
const HistoryLimit = 50

// HistoryRetention é a quantidade máxima de entradas mantidas no banco
const HistoryRetention = 1000

// SaveHistory é uma gravação do documento registrada no banco
type SaveHistory struct {
	ID           int             `json:"id" db:"id"`
	SavedAt      time.Time       `json:"saved_at" db:"saved_at"`
	RecordCount  int             `json:"record_count" db:"record_count"`
	ProjectCount int             `json:"project_count" db:"project_count"`
	FilePath     string          `json:"file_path" db:"file_path"`
	RequestID    string          `json:"request_id,omitempty" db:"request_id"`
	Document     json.RawMessage `json:"document,omitempty" db:"document"`
}

// HistoryRepository persiste o histórico de gravações no PostgreSQL
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository cria um novo repositório de histórico
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create registra uma gravação; Document deve conter o JSON gravado em disco
func (r *HistoryRepository) Create(ctx context.Context, entry SaveHistory) (*SaveHistory, error) {
	if len(entry.Document) == 0 {
		entry.Document = json.RawMessage("{}")
	}

	query := `
		INSERT INTO save_history (saved_at, record_count, project_count, file_path, request_id, document)
		VALUES (NOW(), $1, $2, $3, $4, $5)
		RETURNING id, saved_at
	`

	created := entry
	err := r.db.QueryRowContext(ctx, query, entry.RecordCount, entry.ProjectCount, entry.FilePath,
		nullString(entry.RequestID), []byte(entry.Document)).Scan(&created.ID, &created.SavedAt)
	if err != nil {
		logger.Get(ctx).Error().Err(err).Str("file_path", entry.FilePath).Msg("Erro ao registrar gravação no histórico")
		return nil, fmt.Errorf("erro ao registrar gravação no histórico: %w", err)
	}

	return &created, nil
}

// List retorna as últimas gravações sem o documento
func (r *HistoryRepository) List(ctx context.Context) ([]SaveHistory, error) {
	query := `
		SELECT id, saved_at, record_count, project_count, file_path, COALESCE(request_id, '')
		FROM save_history
		ORDER BY saved_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar histórico: %w", err)
	}
	defer rows.Close()

	history := []SaveHistory{}
	for rows.Next() {
		var h SaveHistory
		if err := rows.Scan(&h.ID, &h.SavedAt, &h.RecordCount, &h.ProjectCount, &h.FilePath, &h.RequestID); err != nil {
			return nil, fmt.Errorf("erro ao escanear histórico: %w", err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar histórico: %w", err)
	}

	return history, nil
}

// GetByID retorna uma gravação com o documento completo
func (r *HistoryRepository) GetByID(ctx context.Context, id int) (*SaveHistory, error) {
	query := `
		SELECT id, saved_at, record_count, project_count, file_path, COALESCE(request_id, ''), document
		FROM save_history
		WHERE id = $1
	`

	var h SaveHistory
	var document []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.SavedAt, &h.RecordCount,
		&h.ProjectCount, &h.FilePath, &h.RequestID, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHistoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar histórico: %w", err)
	}
	h.Document = document

	return &h, nil
}

// Count retorna a quantidade de gravações registradas
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM save_history").Scan(&count); err != nil {
		return 0, fmt.Errorf("erro ao contar histórico: %w", err)
	}
	return count, nil
}

// Cleanup remove registros antigos mantendo apenas os últimos HistoryRetention
func (r *HistoryRepository) Cleanup(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM save_history
		WHERE id NOT IN (
			SELECT id FROM save_history
			ORDER BY saved_at DESC, id DESC
			LIMIT $1
		)
	`

	result, err := r.db.ExecContext(ctx, query, HistoryRetention)
	if err != nil {
		return 0, fmt.Errorf("erro ao limpar histórico antigo: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected > 0 {
		logger.Get(ctx).Info().Int64("rows_deleted", rowsAffected).Msg("Histórico antigo removido")
	}
	return rowsAffected, nil
}

// Ping verifica a conexão com o banco (usado pelo readiness)
func (r *HistoryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// PoolStats expõe as estatísticas do pool de conexões para /metrics
func (r *HistoryRepository) PoolStats() database.PoolStats {
	return database.GetPoolStats(r.db)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
