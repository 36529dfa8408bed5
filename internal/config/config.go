package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cleberrangel/painel-obras/internal/database"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config armazena as configurações da aplicação
type Config struct {
	Port     string `yaml:"port"`
	GinMode  string `yaml:"gin_mode"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	DataFile           string        `yaml:"data_file"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`

	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig é a conexão opcional com o PostgreSQL do histórico
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// ErrInvalidConfig indica valor de configuração fora do domínio aceito
var ErrInvalidConfig = errors.New("configuração inválida")

// Defaults retorna a configuração padrão
func Defaults() *Config {
	return &Config{
		Port:               "8050",
		GinMode:            "debug",
		LogLevel:           "info",
		DataFile:           "project_data.json",
		CacheTTL:           5 * time.Minute,
		RateLimitPerMinute: 600,
		Database: DatabaseConfig{
			Port:    "5432",
			Name:    "painel_obras",
			SSLMode: "disable",
		},
	}
}

// Load carrega as configurações: padrões, depois o arquivo YAML apontado por
// CONFIG_FILE e por fim as variáveis de ambiente, que têm precedência
func Load() (*Config, error) {
	// Tenta carregar .env de múltiplos locais
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")

	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatabaseConfig converte para a configuração do pacote database
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		User:     c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.Name,
		SSLMode:  c.Database.SSLMode,
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: arquivo %s não encontrado", ErrInvalidConfig, path)
		}
		return fmt.Errorf("ler %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString("PORT", &c.Port)
	setString("GIN_MODE", &c.GinMode)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("DATA_FILE", &c.DataFile)
	setString("DB_HOST", &c.Database.Host)
	setString("DB_PORT", &c.Database.Port)
	setString("DB_USER", &c.Database.User)
	setString("DB_PASSWORD", &c.Database.Password)
	setString("DB_NAME", &c.Database.Name)
	setString("DB_SSLMODE", &c.Database.SSLMode)

	if v := strings.TrimSpace(os.Getenv("LOG_JSON")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: LOG_JSON=%q", ErrInvalidConfig, v)
		}
		c.LogJSON = b
	}

	if v := strings.TrimSpace(os.Getenv("CACHE_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: CACHE_TTL=%q", ErrInvalidConfig, v)
		}
		c.CacheTTL = d
	}

	if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_PER_MINUTE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: RATE_LIMIT_PER_MINUTE=%q", ErrInvalidConfig, v)
		}
		c.RateLimitPerMinute = n
	}

	return nil
}

func (c *Config) validate() error {
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, c.Port)
	}
	if strings.TrimSpace(c.DataFile) == "" {
		return fmt.Errorf("%w: DATA_FILE vazio", ErrInvalidConfig)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: CACHE_TTL negativo", ErrInvalidConfig)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("%w: RATE_LIMIT_PER_MINUTE negativo", ErrInvalidConfig)
	}
	return nil
}
