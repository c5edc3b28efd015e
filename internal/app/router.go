package app

import (
	"github.com/gin-gonic/gin"

	httpserver "github.com/yungbote/traitforge-backend/internal/http"
	"github.com/yungbote/traitforge-backend/internal/observability"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *httpserver.Server {
	log.Info("Wiring router...")
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		AllowedOrigins:    cfg.AllowedOrigins,
		Metrics:           metrics,
		AuthMiddleware:    middleware.Auth,
		RealtimeHandler:   handlers.Realtime,
		CollectionHandler: handlers.Collection,
		GenerationHandler: handlers.Generation,
		HealthHandler:     handlers.Health,
	})
}
