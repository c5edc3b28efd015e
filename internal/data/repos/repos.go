package repos

import (
	"github.com/yungbote/traitforge-backend/internal/data/repos/collections"
)

type CollectionRepo = collections.CollectionRepo
type GeneratedNFTRepo = collections.GeneratedNFTRepo
