package collection

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DefaultCanvasWidth  = 512
	DefaultCanvasHeight = 512
	MaxCollectionSize   = 10000
)

// Collection is a saved generation: the registry dump it was produced from plus its items.
type Collection struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	CanvasWidth  int            `gorm:"column:canvas_width;not null;default:512" json:"canvasWidth"`
	CanvasHeight int            `gorm:"column:canvas_height;not null;default:512" json:"canvasHeight"`
	Categories   datatypes.JSON `gorm:"column:categories_data;not null" json:"categories"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Collection) TableName() string { return "nft_collection" }

// GeneratedNFT stores one GeneratedItem of a saved collection.
type GeneratedNFT struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CollectionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"collection_id"`
	Position     int            `gorm:"column:position;not null" json:"position"`
	ItemID       string         `gorm:"column:item_id" json:"item_id"`
	ImageData    string         `gorm:"column:image_data;type:text;not null" json:"imageData"`
	Traits       datatypes.JSON `gorm:"column:traits_data;not null" json:"traits"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (GeneratedNFT) TableName() string { return "generated_nft" }
