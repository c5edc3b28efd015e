package collections

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/traitforge-backend/internal/domain"
	"github.com/yungbote/traitforge-backend/internal/platform/dbctx"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

type CollectionRepo interface {
	Create(dbc dbctx.Context, c *types.Collection) (*types.Collection, error)
	// ListByUser omits the categories payload; newest first.
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Collection, error)
	GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.Collection, error)
	DeleteByID(dbc dbctx.Context, userID, id uuid.UUID) (bool, error)
}

type collectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
	return &collectionRepo{
		db:  db,
		log: baseLog.With("repo", "CollectionRepo"),
	}
}

func (r *collectionRepo) Create(dbc dbctx.Context, c *types.Collection) (*types.Collection, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if err := transaction.WithContext(dbc.Ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *collectionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Collection, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Collection
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Select("id", "user_id", "name", "canvas_width", "canvas_height", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *collectionRepo) GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.Collection, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, nil
	}
	var c types.Collection
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

func (r *collectionRepo) DeleteByID(dbc dbctx.Context, userID, id uuid.UUID) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.Collection{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
