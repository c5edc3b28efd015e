package collections

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/traitforge-backend/internal/data/repos"
	"github.com/yungbote/traitforge-backend/internal/platform/blob"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
	"github.com/yungbote/traitforge-backend/internal/realtime"
	"github.com/yungbote/traitforge-backend/internal/realtime/bus"
)

type UsecasesDeps struct {
	DB  *gorm.DB
	Log *logger.Logger

	Collections repos.CollectionRepo
	Items       repos.GeneratedNFTRepo

	// Optional: exports are refused when nil.
	Blob blob.Store
	// Optional: CollectionSaved / ExportReady notifications.
	Bus bus.Bus

	MaxCollectionSize int
}

type Usecases struct {
	deps UsecasesDeps
}

func New(deps UsecasesDeps) Usecases {
	if deps.Log != nil {
		deps.Log = deps.Log.With("service", "CollectionsUsecases")
	}
	return Usecases{deps: deps}
}

func (u Usecases) notify(ctx context.Context, msg realtime.SSEMessage) {
	if u.deps.Bus == nil {
		return
	}
	if err := u.deps.Bus.Publish(ctx, msg); err != nil && u.deps.Log != nil {
		u.deps.Log.Warn("publish failed", "event", msg.Event, "error", err)
	}
}
