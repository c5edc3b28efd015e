package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/traitforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/traitforge-backend/internal/http/middleware"
	"github.com/yungbote/traitforge-backend/internal/observability"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware    *httpMW.AuthMiddleware
	RealtimeHandler   *httpH.RealtimeHandler
	CollectionHandler *httpH.CollectionHandler
	GenerationHandler *httpH.GenerationHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}

		// Collections
		if cfg.CollectionHandler != nil {
			protected.GET("/collections", cfg.CollectionHandler.List)
			protected.POST("/collections", cfg.CollectionHandler.Create)
			protected.GET("/collections/:id", cfg.CollectionHandler.Get)
			protected.DELETE("/collections/:id", cfg.CollectionHandler.Delete)
			protected.GET("/collections/:id/export", cfg.CollectionHandler.Export)
			protected.GET("/collections/:id/exports", cfg.CollectionHandler.ListExports)
			protected.POST("/collections/:id/exports", cfg.CollectionHandler.StoreExport)
			protected.GET("/collections/:id/items/:index/image", cfg.CollectionHandler.ItemImage)
		}

		// Generation runs
		if cfg.GenerationHandler != nil {
			protected.POST("/generations", cfg.GenerationHandler.Start)
			protected.GET("/generations/:id", cfg.GenerationHandler.Get)
			protected.DELETE("/generations/:id", cfg.GenerationHandler.Cancel)
			protected.POST("/generations/:id/save", cfg.GenerationHandler.Save)
		}
	}

	return r
}
