package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/cleberrangel/painel-obras/internal/database"
	"github.com/cleberrangel/painel-obras/internal/migration"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func setupTestDB(t *testing.T) *sql.DB {
	ctx := context.Background()
	dbConfig := database.Config{
		Host:     getEnvOrDefault("TEST_DB_HOST", "127.0.0.1"),
		Port:     getEnvOrDefault("TEST_DB_PORT", "5432"),
		User:     getEnvOrDefault("TEST_DB_USER", "postgres"),
		Password: getEnvOrDefault("TEST_DB_PASSWORD", "postgres"),
		DBName:   fmt.Sprintf("test_painel_obras_%d", time.Now().UnixNano()),
		SSLMode:  "disable",
	}

	adminConfig := dbConfig
	adminConfig.DBName = "postgres"

	adminDB, err := database.Connect(ctx, adminConfig)
	if err != nil {
		t.Skipf("Pulando teste: não foi possível conectar ao PostgreSQL: %v", err)
	}
	defer adminDB.Close()

	if _, err := adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", dbConfig.DBName)); err != nil {
		t.Fatalf("Erro ao criar banco de teste: %v", err)
	}

	testDB, err := database.Connect(ctx, dbConfig)
	if err != nil {
		t.Fatalf("Erro ao conectar ao banco de teste: %v", err)
	}

	if err := migration.NewMigrator(testDB).Run(ctx); err != nil {
		testDB.Close()
		t.Fatalf("Erro ao executar migrações: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
		adminDB, _ := database.Connect(ctx, adminConfig)
		if adminDB != nil {
			adminDB.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbConfig.DBName))
			adminDB.Close()
		}
	})

	return testDB
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func TestHistoryRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	document := json.RawMessage(`{"columns": ["Obra", "Frente"], "index": [], "data": []}`)
	created, err := repo.Create(ctx, SaveHistory{
		RecordCount:  3,
		ProjectCount: 2,
		FilePath:     "project_data.json",
		RequestID:    "req-1",
		Document:     document,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == 0 || created.SavedAt.IsZero() {
		t.Errorf("id e saved_at devem vir do banco: %+v", created)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.RecordCount != 3 || got.ProjectCount != 2 || got.RequestID != "req-1" {
		t.Errorf("registro divergente: %+v", got)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(got.Document, &doc); err != nil || doc["columns"] == nil {
		t.Errorf("documento não preservado: %s", string(got.Document))
	}

	if _, err := repo.GetByID(ctx, created.ID+1000); !errors.Is(err, ErrHistoryNotFound) {
		t.Errorf("esperado ErrHistoryNotFound, got %v", err)
	}
}

func TestHistoryRepository_ListOrderAndLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	for i := 0; i < HistoryLimit+5; i++ {
		if _, err := repo.Create(ctx, SaveHistory{RecordCount: i, FilePath: "project_data.json"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != HistoryLimit {
		t.Fatalf("esperado %d entradas, got %d", HistoryLimit, len(list))
	}
	if list[0].RecordCount != HistoryLimit+4 {
		t.Errorf("mais recente primeiro: got %d", list[0].RecordCount)
	}
	if list[0].Document != nil {
		t.Errorf("listagem não deve trazer o documento")
	}

	count, err := repo.Count(ctx)
	if err != nil || count != HistoryLimit+5 {
		t.Errorf("Count = %d, %v", count, err)
	}

	deleted, err := repo.Cleanup(ctx)
	if err != nil || deleted != 0 {
		t.Errorf("Cleanup abaixo da retenção não deve remover: %d %v", deleted, err)
	}
}

// Cada gravação registrada pode ser lida de volta com os mesmos contadores
func TestHistoryRepositoryProperties(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("create seguido de get preserva os contadores", prop.ForAll(
		func(records, projects int) bool {
			created, err := repo.Create(ctx, SaveHistory{
				RecordCount:  records,
				ProjectCount: projects,
				FilePath:     "project_data.json",
			})
			if err != nil {
				return false
			}
			got, err := repo.GetByID(ctx, created.ID)
			if err != nil {
				return false
			}
			return got.RecordCount == records && got.ProjectCount == projects && got.RequestID == ""
		},
		gen.IntRange(0, 10000),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

func TestMigrator_RollbackAndRerun(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	m := migration.NewMigrator(db)

	if v, err := m.CurrentVersion(ctx); err != nil || v != m.LatestVersion() {
		t.Fatalf("versão após Run: %d %v", v, err)
	}
	for v := m.LatestVersion(); v > 0; v-- {
		if err := m.Rollback(ctx); err != nil {
			t.Fatalf("Rollback: %v", err)
		}
	}
	if v, _ := m.CurrentVersion(ctx); v != 0 {
		t.Errorf("versão após desfazer tudo: %d", v)
	}
	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run após rollback: %v", err)
	}

	stats := NewHistoryRepository(db).PoolStats()
	if stats.MaxOpenConnections == 0 {
		t.Errorf("pool sem limite configurado: %#v", stats)
	}
}
