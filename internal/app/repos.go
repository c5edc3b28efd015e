package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/traitforge-backend/internal/data/repos"
	"github.com/yungbote/traitforge-backend/internal/data/repos/collections"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type Repos struct {
	Collection   repos.CollectionRepo
	GeneratedNFT repos.GeneratedNFTRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Collection:   collections.NewCollectionRepo(db, log),
		GeneratedNFT: collections.NewGeneratedNFTRepo(db, log),
	}
}
