package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/traitforge-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Collection{},
		&types.GeneratedNFT{},
	)
}

// EnsureCollectionIndexes adds the composite indexes the list and export
// queries rely on. Safe to run repeatedly.
func EnsureCollectionIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_nft_collection_user_created ON nft_collection(user_id, created_at);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_generated_nft_collection_position ON generated_nft(collection_id, position);`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}
