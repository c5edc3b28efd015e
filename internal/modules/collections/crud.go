package collections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/traitforge-backend/internal/domain"
	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/engine"
	"github.com/yungbote/traitforge-backend/internal/platform/apierr"
	"github.com/yungbote/traitforge-backend/internal/platform/dbctx"
	"github.com/yungbote/traitforge-backend/internal/realtime"
)

type SaveInput struct {
	Name         string                     `json:"name"`
	CanvasWidth  int                        `json:"canvasWidth"`
	CanvasHeight int                        `json:"canvasHeight"`
	Categories   []collection.TraitCategory `json:"categories"`
	Items        []collection.GeneratedItem `json:"generatedNFTs"`
}

type Summary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CanvasWidth  int       `json:"canvasWidth"`
	CanvasHeight int       `json:"canvasHeight"`
	ItemCount    int       `json:"itemCount"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Detail struct {
	Summary
	Categories []collection.TraitCategory `json:"categories"`
	Items      []collection.GeneratedItem `json:"generatedNFTs"`
}

func (u Usecases) Save(ctx context.Context, userID uuid.UUID, in SaveInput) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return uuid.Nil, apierr.New(http.StatusBadRequest, "invalid_name", fmt.Errorf("missing collection name"))
	}
	if err := collection.ValidateCategories(in.Categories); err != nil {
		return uuid.Nil, apierr.New(http.StatusBadRequest, "invalid_categories", err)
	}
	if limit := u.deps.MaxCollectionSize; limit > 0 && len(in.Items) > limit {
		return uuid.Nil, apierr.New(http.StatusBadRequest, "collection_too_large", fmt.Errorf("%d items exceeds limit %d", len(in.Items), limit))
	}
	for i, it := range in.Items {
		if _, _, err := engine.ParseDataURL(it.DataURL); err != nil {
			return uuid.Nil, apierr.New(http.StatusBadRequest, "invalid_item", fmt.Errorf("item %d: %w", i, err))
		}
	}
	width, height := in.CanvasWidth, in.CanvasHeight
	if width <= 0 {
		width = collection.DefaultCanvasWidth
	}
	if height <= 0 {
		height = collection.DefaultCanvasHeight
	}

	catsJSON, err := json.Marshal(in.Categories)
	if err != nil {
		return uuid.Nil, apierr.New(http.StatusBadRequest, "invalid_categories", err)
	}
	row := &types.Collection{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		CanvasWidth:  width,
		CanvasHeight: height,
		Categories:   catsJSON,
	}
	nfts := make([]*types.GeneratedNFT, 0, len(in.Items))
	for i, it := range in.Items {
		traits := it.Traits
		if traits == nil {
			traits = []collection.TraitRef{}
		}
		traitsJSON, err := json.Marshal(traits)
		if err != nil {
			return uuid.Nil, apierr.New(http.StatusBadRequest, "invalid_item", err)
		}
		nfts = append(nfts, &types.GeneratedNFT{
			CollectionID: row.ID,
			Position:     i,
			ItemID:       it.ID,
			ImageData:    it.DataURL,
			Traits:       traitsJSON,
		})
	}

	err = u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := u.deps.Collections.Create(dbc, row); err != nil {
			return err
		}
		if _, err := u.deps.Items.Create(dbc, nfts); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, apierr.New(http.StatusInternalServerError, "save_collection_failed", err)
	}
	if u.deps.Log != nil {
		u.deps.Log.Info("collection saved", "collection_id", row.ID, "items", len(nfts))
	}
	u.notify(ctx, realtime.SSEMessage{
		Channel: realtime.UserChannel(userID),
		Event:   realtime.SSEEventCollectionSaved,
		Data:    map[string]any{"collectionId": row.ID, "name": name, "itemCount": len(nfts)},
	})
	return row.ID, nil
}

func (u Usecases) List(ctx context.Context, userID uuid.UUID) ([]Summary, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	dbc := dbctx.Context{Ctx: ctx}
	rows, err := u.deps.Collections.ListByUser(dbc, userID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "list_collections_failed", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	counts, err := u.deps.Items.CountByCollectionIDs(dbc, ids)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "list_collections_failed", err)
	}
	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		s := summaryOf(r)
		s.ItemCount = counts[r.ID]
		out = append(out, s)
	}
	return out, nil
}

func (u Usecases) Get(ctx context.Context, userID, id uuid.UUID) (*Detail, error) {
	row, err := u.load(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	var cats []collection.TraitCategory
	if len(row.Categories) > 0 {
		if err := json.Unmarshal(row.Categories, &cats); err != nil {
			return nil, apierr.New(http.StatusInternalServerError, "decode_collection_failed", err)
		}
	}
	if cats == nil {
		cats = []collection.TraitCategory{}
	}
	nfts, err := u.deps.Items.ListByCollection(dbctx.Context{Ctx: ctx}, row.ID)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "load_items_failed", err)
	}
	items := make([]collection.GeneratedItem, 0, len(nfts))
	for _, n := range nfts {
		it, err := itemOf(n)
		if err != nil {
			return nil, apierr.New(http.StatusInternalServerError, "decode_collection_failed", err)
		}
		items = append(items, it)
	}
	d := &Detail{Summary: summaryOf(row), Categories: cats, Items: items}
	d.ItemCount = len(items)
	return d, nil
}

func (u Usecases) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := u.load(ctx, userID, id); err != nil {
		return err
	}
	err := u.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := u.deps.Items.DeleteByCollection(dbc, id); err != nil {
			return err
		}
		deleted, err := u.deps.Collections.DeleteByID(dbc, userID, id)
		if err != nil {
			return err
		}
		if !deleted {
			return collection.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, collection.ErrNotFound) {
			return apierr.New(http.StatusNotFound, "collection_not_found", err)
		}
		return apierr.New(http.StatusInternalServerError, "delete_collection_failed", err)
	}
	return nil
}

// Item returns the collection name and the item at index (0-based).
func (u Usecases) Item(ctx context.Context, userID, id uuid.UUID, index int) (string, *collection.GeneratedItem, error) {
	row, err := u.load(ctx, userID, id)
	if err != nil {
		return "", nil, err
	}
	if index < 0 {
		return "", nil, apierr.New(http.StatusBadRequest, "invalid_index", fmt.Errorf("index must be >= 0"))
	}
	n, err := u.deps.Items.GetByPosition(dbctx.Context{Ctx: ctx}, row.ID, index)
	if err != nil {
		return "", nil, apierr.New(http.StatusInternalServerError, "load_items_failed", err)
	}
	if n == nil {
		return "", nil, apierr.New(http.StatusNotFound, "item_not_found", nil)
	}
	it, err := itemOf(n)
	if err != nil {
		return "", nil, apierr.New(http.StatusInternalServerError, "decode_collection_failed", err)
	}
	return row.Name, &it, nil
}

func (u Usecases) load(ctx context.Context, userID, id uuid.UUID) (*types.Collection, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if id == uuid.Nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_collection_id", fmt.Errorf("missing collection id"))
	}
	row, err := u.deps.Collections.GetByID(dbctx.Context{Ctx: ctx}, userID, id)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "load_collection_failed", err)
	}
	if row == nil {
		return nil, apierr.New(http.StatusNotFound, "collection_not_found", collection.ErrNotFound)
	}
	return row, nil
}

func summaryOf(r *types.Collection) Summary {
	return Summary{
		ID:           r.ID,
		Name:         r.Name,
		CanvasWidth:  r.CanvasWidth,
		CanvasHeight: r.CanvasHeight,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func itemOf(n *types.GeneratedNFT) (collection.GeneratedItem, error) {
	it := collection.GeneratedItem{ID: n.ItemID, DataURL: n.ImageData, Traits: []collection.TraitRef{}}
	if len(n.Traits) > 0 {
		if err := json.Unmarshal(n.Traits, &it.Traits); err != nil {
			return it, fmt.Errorf("item %d traits: %w", n.Position, err)
		}
	}
	return it, nil
}
