package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolateEnv limpa as variáveis lidas por Load durante o teste
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "GIN_MODE", "LOG_LEVEL", "LOG_JSON", "DATA_FILE", "CACHE_TTL",
		"RATE_LIMIT_PER_MINUTE", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
	} {
		t.Setenv(key, "")
	}
	// evita que um .env do diretório de trabalho interfira
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	isolateEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8050" || cfg.DataFile != "project_data.json" || cfg.CacheTTL != 5*time.Minute {
		t.Errorf("padrões inesperados: %+v", cfg)
	}
	if cfg.RateLimitPerMinute != 600 || cfg.LogLevel != "info" || cfg.LogJSON {
		t.Errorf("padrões inesperados: %+v", cfg)
	}
	if cfg.DatabaseConfig().Enabled() {
		t.Errorf("sem DB_HOST o histórico deve ficar desligado")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "painel.yaml")
	content := `
port: "9000"
data_file: /dados/obras.json
cache_ttl: 30s
log_json: true
database:
  host: db.local
  name: obras
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("variável de ambiente deve ter precedência, port=%s", cfg.Port)
	}
	if cfg.DataFile != "/dados/obras.json" || cfg.CacheTTL != 30*time.Second || !cfg.LogJSON {
		t.Errorf("valores do arquivo não aplicados: %+v", cfg)
	}
	if cfg.RateLimitPerMinute != 0 {
		t.Errorf("rate limit %d", cfg.RateLimitPerMinute)
	}

	db := cfg.DatabaseConfig()
	if !db.Enabled() || db.Host != "db.local" || db.DBName != "obras" || db.Port != "5432" {
		t.Errorf("banco: %+v", db)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"porta":      {"PORT": "abc"},
		"ttl":        {"CACHE_TTL": "cinco"},
		"log json":   {"LOG_JSON": "talvez"},
		"rate limit": {"RATE_LIMIT_PER_MINUTE": "-1"},
		"arquivo":    {"CONFIG_FILE": "/nao/existe.yaml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			isolateEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("esperado ErrInvalidConfig, got %v", err)
			}
		})
	}
}
