package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/traitforge-backend/internal/data/db"
	httpserver "github.com/yungbote/traitforge-backend/internal/http"
	"github.com/yungbote/traitforge-backend/internal/observability"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
	"github.com/yungbote/traitforge-backend/internal/realtime"
)

const serviceName = "traitforge"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpserver.Server
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	metrics := observability.Init(log)

	dbService, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init db: %w", err)
	}
	theDB := dbService.DB()
	if err := db.AutoMigrateAll(theDB); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	if err := db.EnsureCollectionIndexes(theDB); err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	ssehub := realtime.NewSSEHub(log)
	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, metrics)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, serviceset, ssehub)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       ssehub,
		Metrics:      metrics,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background pieces: the SSE bus forwarder and the
// metrics collectors.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if err := a.Services.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
		return fmt.Errorf("start SSE forwarder: %w", err)
	}
	a.Metrics.StartDBCollector(ctx, a.Log, a.DB)
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Cfg.RedisAddr)
	a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
	return nil
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return nil
	}
	return a.Server.Shutdown(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.Runner != nil {
		a.Services.Runner.Close()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Bus != nil {
		_ = a.Services.Bus.Close()
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.dbService != nil {
		_ = a.dbService.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
