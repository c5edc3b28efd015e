package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	collectionsmod "github.com/yungbote/traitforge-backend/internal/modules/collections"
	"github.com/yungbote/traitforge-backend/internal/modules/generation"
	"github.com/yungbote/traitforge-backend/internal/observability"
	"github.com/yungbote/traitforge-backend/internal/platform/blob"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
	"github.com/yungbote/traitforge-backend/internal/realtime/bus"
)

type Services struct {
	Bus         bus.Bus
	Blob        blob.Store
	Collections collectionsmod.Usecases
	Runner      *generation.Runner
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	var sseBus bus.Bus
	if cfg.RedisAddr != "" {
		rb, err := bus.NewRedisBus(log, bus.RedisConfig{Addr: cfg.RedisAddr, Channel: cfg.RedisChannel})
		if err != nil {
			return Services{}, fmt.Errorf("init redis bus: %w", err)
		}
		sseBus = rb
	} else {
		log.Info("REDIS_ADDR not set; SSE events stay in-process")
		sseBus = bus.NewLocalBus()
	}

	store, err := blob.Open(context.Background(), cfg.Blob)
	if err != nil {
		// exports are optional; the rest of the API still works
		log.Warn("blob store unavailable; stored exports disabled", "driver", cfg.Blob.Driver, "error", err)
		store = nil
	}

	collections := collectionsmod.New(collectionsmod.UsecasesDeps{
		DB:                db,
		Log:               log,
		Collections:       reposet.Collection,
		Items:             reposet.GeneratedNFT,
		Blob:              store,
		Bus:               sseBus,
		MaxCollectionSize: cfg.MaxCollectionSize,
	})

	var observer generation.Observer
	if metrics != nil {
		observer = metrics
	}
	runner := generation.NewRunner(generation.RunnerDeps{
		Log:         log,
		Bus:         sseBus,
		Observer:    observer,
		Collections: collections,
		Config: generation.Config{
			MaxCollectionSize:   cfg.MaxCollectionSize,
			DefaultCanvasWidth:  cfg.DefaultCanvasWidth,
			DefaultCanvasHeight: cfg.DefaultCanvasHeight,
			ItemPause:           cfg.ItemPause,
			DecodeConcurrency:   cfg.DecodeConcurrency,
			Retention:           cfg.RunRetention,
		},
	})

	return Services{
		Bus:         sseBus,
		Blob:        store,
		Collections: collections,
		Runner:      runner,
	}, nil
}
