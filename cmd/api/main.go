package main

import (
	"context"
	"database/sql"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cleberrangel/painel-obras/internal/cache"
	"github.com/cleberrangel/painel-obras/internal/config"
	"github.com/cleberrangel/painel-obras/internal/database"
	"github.com/cleberrangel/painel-obras/internal/handler"
	"github.com/cleberrangel/painel-obras/internal/logger"
	"github.com/cleberrangel/painel-obras/internal/metrics"
	"github.com/cleberrangel/painel-obras/internal/middleware"
	"github.com/cleberrangel/painel-obras/internal/migration"
	"github.com/cleberrangel/painel-obras/internal/repository"
	"github.com/cleberrangel/painel-obras/internal/service"
	"github.com/cleberrangel/painel-obras/internal/websocket"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

func main() {
	// Carrega configurações
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("Erro ao carregar configurações: %v", err)
	}

	// Inicializa logger estruturado
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Global()
	log.Info().
		Str("version", Version).
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Bool("log_json", cfg.LogJSON).
		Str("data_file", cfg.DataFile).
		Msg("Painel de obras iniciando")

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Histórico opcional no PostgreSQL
	var (
		db          *sql.DB
		historyRepo *repository.HistoryRepository
		pinger      metrics.Pinger
		store       service.HistoryStore
	)
	if dbCfg := cfg.DatabaseConfig(); dbCfg.Enabled() {
		db, err = database.Connect(ctx, dbCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Erro ao conectar ao banco")
		}
		defer database.Close(db)

		if err := migration.NewMigrator(db).Run(ctx); err != nil {
			log.Fatal().Err(err).Msg("Erro ao executar migrações")
		}

		historyRepo = repository.NewHistoryRepository(db)
		pinger = historyRepo
		store = historyRepo
	} else {
		log.Info().Msg("Banco não configurado; histórico de gravações desabilitado")
	}

	// Inicializa dependências
	hub := websocket.NewHub()
	go hub.Run(ctx)

	historyService := service.NewHistoryService(store)
	obraService := service.NewObraService(repository.NewDocumentStorage(cfg.DataFile), historyService)
	handler.BroadcastChanges(obraService, hub)

	dashboardCache := cache.NewCache[service.DashboardView](cfg.CacheTTL)
	defer dashboardCache.Stop()
	dashboardService := service.NewDashboardService(obraService, dashboardCache)

	// Documento quebrado não impede a subida: o painel abre vazio com o erro no status
	if err := obraService.Load(ctx); err != nil {
		log.Error().Err(err).Msg("Dados não carregados")
	}

	// Configura modo do Gin
	gin.SetMode(cfg.GinMode)

	// Inicializa router
	r := gin.New()
	r.Use(middleware.RequestID()) // Request ID + logging estruturado
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	handler.RegisterRoutes(r, handler.Handlers{
		Obras:     handler.NewObraHandler(obraService, dashboardService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		History:   handler.NewHistoryHandler(historyService),
		Health:    handler.NewHealthHandler(pinger, cfg.DataFile, hub, dashboardService, Version),
		WebSocket: handler.NewWebSocketHandler(hub),
	}, limiter.Middleware(), middleware.AuditMiddleware("/api/v1"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Servidor iniciando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Erro ao iniciar servidor")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Sinal recebido, encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Erro no encerramento do servidor")
	}

	log.Info().Msg("Servidor encerrado")
}
