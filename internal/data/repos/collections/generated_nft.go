package collections

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/traitforge-backend/internal/domain"
	"github.com/yungbote/traitforge-backend/internal/platform/dbctx"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type GeneratedNFTRepo interface {
	Create(dbc dbctx.Context, items []*types.GeneratedNFT) ([]*types.GeneratedNFT, error)
	ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*types.GeneratedNFT, error)
	GetByPosition(dbc dbctx.Context, collectionID uuid.UUID, position int) (*types.GeneratedNFT, error)
	CountByCollectionIDs(dbc dbctx.Context, collectionIDs []uuid.UUID) (map[uuid.UUID]int, error)
	DeleteByCollection(dbc dbctx.Context, collectionID uuid.UUID) error
}

type generatedNFTRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGeneratedNFTRepo(db *gorm.DB, baseLog *logger.Logger) GeneratedNFTRepo {
	return &generatedNFTRepo{
		db:  db,
		log: baseLog.With("repo", "GeneratedNFTRepo"),
	}
}

// createBatchSize keeps each INSERT under sqlite's bound-variable limit
// since image payloads are stored inline.
const createBatchSize = 100

func (r *generatedNFTRepo) Create(dbc dbctx.Context, items []*types.GeneratedNFT) ([]*types.GeneratedNFT, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(items) == 0 {
		return []*types.GeneratedNFT{}, nil
	}
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).CreateInBatches(&items, createBatchSize).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *generatedNFTRepo) ListByCollection(dbc dbctx.Context, collectionID uuid.UUID) ([]*types.GeneratedNFT, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.GeneratedNFT
	if collectionID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("collection_id = ?", collectionID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generatedNFTRepo) GetByPosition(dbc dbctx.Context, collectionID uuid.UUID, position int) (*types.GeneratedNFT, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var it types.GeneratedNFT
	err := transaction.WithContext(dbc.Ctx).
		Where("collection_id = ? AND position = ?", collectionID, position).
		Limit(1).
		Find(&it).Error
	if err != nil {
		return nil, err
	}
	if it.ID == uuid.Nil {
		return nil, nil
	}
	return &it, nil
}

func (r *generatedNFTRepo) CountByCollectionIDs(dbc dbctx.Context, collectionIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := make(map[uuid.UUID]int, len(collectionIDs))
	if len(collectionIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		CollectionID uuid.UUID
		N            int
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.GeneratedNFT{}).
		Select("collection_id, COUNT(*) AS n").
		Where("collection_id IN ?", collectionIDs).
		Group("collection_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CollectionID] = row.N
	}
	return out, nil
}

func (r *generatedNFTRepo) DeleteByCollection(dbc dbctx.Context, collectionID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Where("collection_id = ?", collectionID).
		Delete(&types.GeneratedNFT{}).Error
}
