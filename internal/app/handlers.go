package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/traitforge-backend/internal/http/handlers"
	httpMW "github.com/yungbote/traitforge-backend/internal/http/middleware"
	"github.com/yungbote/traitforge-backend/internal/platform/authtoken"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
	"github.com/yungbote/traitforge-backend/internal/realtime"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Realtime   *httpH.RealtimeHandler
	Collection *httpH.CollectionHandler
	Generation *httpH.GenerationHandler
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services, sseHub *realtime.SSEHub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(db),
		Realtime:   httpH.NewRealtimeHandler(log, sseHub, services.Runner),
		Collection: httpH.NewCollectionHandler(log, services.Collections),
		Generation: httpH.NewGenerationHandler(log, services.Runner),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.AuthDisabled {
		return Middleware{Auth: httpMW.NewDevAuthMiddleware(log, cfg.DevUserID)}
	}
	return Middleware{Auth: httpMW.NewAuthMiddleware(log, authtoken.NewVerifier(cfg.JWTSecretKey))}
}
