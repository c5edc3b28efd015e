package collections

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/traitforge-backend/internal/data/repos/testutil"
	types "github.com/yungbote/traitforge-backend/internal/domain"
	"github.com/yungbote/traitforge-backend/internal/platform/dbctx"
)

func seedCollection(t *testing.T, repo CollectionRepo, dbc dbctx.Context, userID uuid.UUID, name string, created time.Time) *types.Collection {
	t.Helper()
	c, err := repo.Create(dbc, &types.Collection{
		UserID:       userID,
		Name:         name,
		CanvasWidth:  512,
		CanvasHeight: 512,
		Categories:   datatypes.JSON(`[{"id":"bg","name":"Background","images":[],"order":0}]`),
		CreatedAt:    created,
		UpdatedAt:    created,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return c
}

func TestCollectionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewCollectionRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	owner := uuid.New()
	stranger := uuid.New()
	now := time.Now().UTC()
	older := seedCollection(t, repo, dbc, owner, "Older", now.Add(-time.Hour))
	newer := seedCollection(t, repo, dbc, owner, "Newer", now)
	seedCollection(t, repo, dbc, stranger, "Theirs", now)

	list, err := repo.ListByUser(dbc, owner)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("ListByUser: unexpected order: %+v", list)
	}
	if len(list[0].Categories) != 0 {
		t.Fatalf("ListByUser: categories payload should not be loaded")
	}

	got, err := repo.GetByID(dbc, owner, older.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Name != "Older" || len(got.Categories) == 0 {
		t.Fatalf("GetByID: unexpected result: %+v", got)
	}

	got, err = repo.GetByID(dbc, stranger, older.ID)
	if err != nil {
		t.Fatalf("GetByID (stranger): %v", err)
	}
	if got != nil {
		t.Fatalf("GetByID (stranger): expected nil, got %+v", got)
	}

	deleted, err := repo.DeleteByID(dbc, stranger, older.ID)
	if err != nil || deleted {
		t.Fatalf("DeleteByID (stranger): deleted=%v err=%v", deleted, err)
	}
	deleted, err = repo.DeleteByID(dbc, owner, older.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteByID: deleted=%v err=%v", deleted, err)
	}
}

func TestGeneratedNFTRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	collections := NewCollectionRepo(db, log)
	repo := NewGeneratedNFTRepo(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	c := seedCollection(t, collections, dbc, uuid.New(), "Cats", time.Now().UTC())
	var items []*types.GeneratedNFT
	for i := 2; i >= 0; i-- {
		items = append(items, &types.GeneratedNFT{
			CollectionID: c.ID,
			Position:     i,
			ItemID:       "nft-" + uuid.NewString(),
			ImageData:    "data:image/png;base64,AAAA",
			Traits:       datatypes.JSON(`[]`),
			CreatedAt:    time.Now().UTC(),
		})
	}
	if _, err := repo.Create(dbc, items); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := repo.ListByCollection(dbc, c.ID)
	if err != nil {
		t.Fatalf("ListByCollection: %v", err)
	}
	if len(list) != 3 || list[0].Position != 0 || list[2].Position != 2 {
		t.Fatalf("ListByCollection: unexpected order: %+v", list)
	}

	it, err := repo.GetByPosition(dbc, c.ID, 1)
	if err != nil || it == nil || it.Position != 1 {
		t.Fatalf("GetByPosition: it=%+v err=%v", it, err)
	}
	it, err = repo.GetByPosition(dbc, c.ID, 9)
	if err != nil || it != nil {
		t.Fatalf("GetByPosition (missing): it=%+v err=%v", it, err)
	}

	counts, err := repo.CountByCollectionIDs(dbc, []uuid.UUID{c.ID, uuid.New()})
	if err != nil {
		t.Fatalf("CountByCollectionIDs: %v", err)
	}
	if counts[c.ID] != 3 {
		t.Fatalf("CountByCollectionIDs: got %d want 3", counts[c.ID])
	}

	if err := repo.DeleteByCollection(dbc, c.ID); err != nil {
		t.Fatalf("DeleteByCollection: %v", err)
	}
	list, _ = repo.ListByCollection(dbc, c.ID)
	if len(list) != 0 {
		t.Fatalf("DeleteByCollection: %d items remain", len(list))
	}
}
