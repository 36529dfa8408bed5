package database

import (
	"context"
	"strings"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Host: "localhost", User: "obras", DBName: "painel_obras"}.withDefaults()

	if cfg.Port != "5432" || cfg.SSLMode != "disable" {
		t.Errorf("padrões de conexão: port=%s sslmode=%s", cfg.Port, cfg.SSLMode)
	}
	if cfg.MaxIdleConns > cfg.MaxOpenConns {
		t.Errorf("MaxIdleConns (%d) não deve exceder MaxOpenConns (%d)", cfg.MaxIdleConns, cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime < 1 {
		t.Errorf("ConnMaxLifetime deve ser ao menos 1 minuto, got %d", cfg.ConnMaxLifetime)
	}

	explicit := Config{Host: "db", MaxOpenConns: 3, MaxIdleConns: 1}.withDefaults()
	if explicit.MaxOpenConns != 3 || explicit.MaxIdleConns != 1 {
		t.Errorf("valores explícitos não devem ser sobrescritos: %+v", explicit)
	}
}

func TestConfigDSN(t *testing.T) {
	dsn := Config{
		Host: "db", Port: "5433", User: "u", Password: "p", DBName: "obras", SSLMode: "require",
	}.DSN()
	for _, part := range []string{"host=db", "port=5433", "user=u", "password=p", "dbname=obras", "sslmode=require"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN %q sem %q", dsn, part)
		}
	}
}

func TestConfigEnabled(t *testing.T) {
	if (Config{}).Enabled() {
		t.Errorf("sem host o banco deve ficar desligado")
	}
	if !(Config{Host: "localhost"}).Enabled() {
		t.Errorf("com host o banco deve ficar ligado")
	}
}

func TestConnectUnreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{Host: "127.0.0.1", Port: "1", User: "x", DBName: "x"})
	if err == nil {
		t.Skip("há algo escutando na porta 1")
	}
}
