package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/data/repos/collections"
	"github.com/yungbote/traitforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/engine"
	collectionsmod "github.com/yungbote/traitforge-backend/internal/modules/collections"
	"github.com/yungbote/traitforge-backend/internal/modules/generation"
	"github.com/yungbote/traitforge-backend/internal/platform/blob"
	"github.com/yungbote/traitforge-backend/internal/platform/ctxutil"
	"github.com/yungbote/traitforge-backend/internal/realtime"
	"github.com/yungbote/traitforge-backend/internal/realtime/bus"
)

type testServer struct {
	engine *gin.Engine
	runner *generation.Runner
	user   uuid.UUID
}

func asUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != uuid.Nil {
			ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

func newTestServer(t *testing.T, userID uuid.UUID) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	b := bus.NewLocalBus()
	hub := realtime.NewSSEHub(log)
	if err := b.StartForwarder(context.Background(), hub.Broadcast); err != nil {
		t.Fatalf("StartForwarder: %v", err)
	}
	cols := collectionsmod.New(collectionsmod.UsecasesDeps{
		DB:          db,
		Log:         log,
		Collections: collections.NewCollectionRepo(db, log),
		Items:       collections.NewGeneratedNFTRepo(db, log),
		Blob:        blob.NewMemory(),
		Bus:         b,
	})
	runner := generation.NewRunner(generation.RunnerDeps{Log: log, Bus: b, Collections: cols})
	t.Cleanup(runner.Close)

	ch := NewCollectionHandler(log, cols)
	gh := NewGenerationHandler(log, runner)
	rh := NewRealtimeHandler(log, hub, runner)

	r := gin.New()
	r.GET("/healthcheck", NewHealthHandler(db).HealthCheck)
	r.GET("/readyz", NewHealthHandler(db).Ready)
	api := r.Group("/api", asUser(userID))
	api.GET("/collections", ch.List)
	api.POST("/collections", ch.Create)
	api.GET("/collections/:id", ch.Get)
	api.DELETE("/collections/:id", ch.Delete)
	api.GET("/collections/:id/export", ch.Export)
	api.POST("/collections/:id/exports", ch.StoreExport)
	api.GET("/collections/:id/exports", ch.ListExports)
	api.GET("/collections/:id/items/:index/image", ch.ItemImage)
	api.POST("/generations", gh.Start)
	api.GET("/generations/:id", gh.Get)
	api.DELETE("/generations/:id", gh.Cancel)
	api.POST("/generations/:id/save", gh.Save)
	api.GET("/sse/stream", rh.SSEStream)
	return testServer{engine: r, runner: runner, user: userID}
}

func (s testServer) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return out
}

func solidDataURL(t *testing.T, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return engine.EncodeDataURL("image/png", buf.Bytes())
}

func categories(t *testing.T) []collection.TraitCategory {
	return []collection.TraitCategory{
		{ID: "bg", Name: "Background", Images: []collection.TraitVariant{
			{ID: "bg-red", Name: "Red", Image: solidDataURL(t, color.NRGBA{R: 255, A: 255}), Rarity: 1},
		}},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, uuid.New())
	for _, path := range []string{"/healthcheck", "/readyz"} {
		rec := s.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
			t.Fatalf("%s: %d %s", path, rec.Code, rec.Body.String())
		}
	}
}

func TestUnauthenticated(t *testing.T) {
	s := newTestServer(t, uuid.Nil)
	rec := s.do(t, http.MethodGet, "/api/collections", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: %d", rec.Code)
	}
}

func TestCollectionLifecycle(t *testing.T) {
	s := newTestServer(t, uuid.New())

	rec := s.do(t, http.MethodPost, "/api/collections", map[string]any{
		"name":       "Red Things",
		"categories": categories(t),
		"generatedNFTs": []collection.GeneratedItem{
			{ID: "nft-a", DataURL: solidDataURL(t, color.NRGBA{R: 255, A: 255}), Traits: []collection.TraitRef{{Category: "Background", Trait: "Red", TraitID: "bg-red"}}},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		CollectionID uuid.UUID `json:"collectionId"`
	}](t, rec)

	rec = s.do(t, http.MethodGet, "/api/collections", nil)
	list := decode[struct {
		Collections []collectionsmod.Summary `json:"collections"`
	}](t, rec)
	if len(list.Collections) != 1 || list.Collections[0].ItemCount != 1 {
		t.Fatalf("list: %s", rec.Body.String())
	}

	base := "/api/collections/" + created.CollectionID.String()
	rec = s.do(t, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	got := decode[struct {
		Collection    collectionsmod.Detail      `json:"collection"`
		GeneratedNFTs []collection.GeneratedItem `json:"generatedNFTs"`
	}](t, rec)
	if got.Collection.CanvasWidth != 512 || len(got.GeneratedNFTs) != 1 {
		t.Fatalf("detail: %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, base+"/export?preview=true", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Fatalf("export: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="Red_Things.zip"` {
		t.Fatalf("content disposition: %s", cd)
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("zip entries: %d", len(zr.File))
	}

	rec = s.do(t, http.MethodGet, base+"/items/0/image", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("item image: %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="Red_Things_1.png"` {
		t.Fatalf("item disposition: %s", cd)
	}
	if _, err := png.Decode(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Fatalf("item is not a png: %v", err)
	}

	rec = s.do(t, http.MethodPost, base+"/exports", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("store export: %d %s", rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodGet, base+"/exports", nil)
	exports := decode[struct {
		Exports []blob.Info `json:"exports"`
	}](t, rec)
	if len(exports.Exports) != 1 {
		t.Fatalf("exports: %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodDelete, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
	env := decode[struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}](t, rec)
	if env.Error.Code != "collection_not_found" {
		t.Fatalf("error code: %s", env.Error.Code)
	}
}

func TestBadIDs(t *testing.T) {
	s := newTestServer(t, uuid.New())
	if rec := s.do(t, http.MethodGet, "/api/collections/not-a-uuid", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("collection id: %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/generations/not-a-uuid", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("run id: %d", rec.Code)
	}
}

func TestGenerationFlow(t *testing.T) {
	s := newTestServer(t, uuid.New())

	rec := s.do(t, http.MethodPost, "/api/generations", generation.StartInput{
		Categories:     categories(t),
		CollectionSize: 3,
		CanvasWidth:    8,
		CanvasHeight:   8,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start: %d %s", rec.Code, rec.Body.String())
	}
	started := decode[struct {
		Run generation.RunView `json:"run"`
	}](t, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.runner.Wait(ctx, s.user, started.Run.ID); err != nil {
		t.Fatalf("wait: %v", err)
	}

	base := "/api/generations/" + started.Run.ID.String()
	rec = s.do(t, http.MethodGet, base, nil)
	got := decode[struct {
		Run generation.RunView `json:"run"`
	}](t, rec)
	if got.Run.Status != generation.StatusDone || len(got.Run.Items) != 3 {
		t.Fatalf("run: %s", rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, base+"/save", map[string]string{"name": "From Run"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("save: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/api/generations", generation.StartInput{Categories: categories(t)})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("zero size: %d", rec.Code)
	}
}

func TestSSEStreamRejectsForeignRun(t *testing.T) {
	s := newTestServer(t, uuid.New())
	rec := s.do(t, http.MethodGet, "/api/sse/stream?channel=run:"+uuid.NewString(), nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/api/sse/stream?channel=global", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status: %d", rec.Code)
	}
}
