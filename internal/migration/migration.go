package migration

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/cleberrangel/painel-obras/internal/logger"
	_ "github.com/lib/pq"
)

// Migration representa uma migração de banco de dados
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrator gerencia as migrações do banco de dados
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

// NewMigrator cria um novo migrator
func NewMigrator(db *sql.DB) *Migrator {
	migrations := getAllMigrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return &Migrator{
		db:         db,
		migrations: migrations,
	}
}

// Run executa todas as migrações pendentes
func (m *Migrator) Run(ctx context.Context) error {
	log := logger.Get(ctx)

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("erro ao criar tabela de migrações: %w", err)
	}

	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("erro ao obter versão atual: %w", err)
	}

	log.Info().Int("current_version", currentVersion).Msg("Versão atual do banco de dados")

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}
		log.Info().
			Int("version", migration.Version).
			Str("name", migration.Name).
			Msg("Executando migração")

		if err := m.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("erro ao executar migração %d (%s): %w",
				migration.Version, migration.Name, err)
		}
	}

	return nil
}

// Rollback desfaz a última migração aplicada
func (m *Migrator) Rollback(ctx context.Context) error {
	currentVersion, err := m.CurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("erro ao obter versão atual: %w", err)
	}
	if currentVersion == 0 {
		return nil
	}

	for _, migration := range m.migrations {
		if migration.Version != currentVersion {
			continue
		}
		tx, err := m.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, migration.Down); err != nil {
			return fmt.Errorf("erro ao desfazer migração %d: %w", migration.Version, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", migration.Version); err != nil {
			return err
		}
		logger.Get(ctx).Info().Int("version", migration.Version).Msg("Migração desfeita")
		return tx.Commit()
	}
	return fmt.Errorf("migração %d não encontrada", currentVersion)
}

// CurrentVersion obtém a versão atual do banco
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var version int
	query := "SELECT COALESCE(MAX(version), 0) FROM schema_migrations"
	if err := m.db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

// LatestVersion é a maior versão conhecida pelo binário
func (m *Migrator) LatestVersion() int {
	if len(m.migrations) == 0 {
		return 0
	}
	return m.migrations[len(m.migrations)-1].Version
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.Up); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)",
		migration.Version, time.Now(),
	); err != nil {
		return err
	}

	return tx.Commit()
}
