// Package generation runs collection generations in the background and
// streams their progress over SSE.
package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/engine"
	collectionsmod "github.com/yungbote/traitforge-backend/internal/modules/collections"
	"github.com/yungbote/traitforge-backend/internal/platform/apierr"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
	"github.com/yungbote/traitforge-backend/internal/realtime"
	"github.com/yungbote/traitforge-backend/internal/realtime/bus"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Observer extends the engine counters with run lifecycle hooks.
type Observer interface {
	engine.Observer
	RunStarted()
	RunFinished(outcome string)
}

type Config struct {
	MaxCollectionSize   int
	DefaultCanvasWidth  int
	DefaultCanvasHeight int
	ItemPause           time.Duration
	DecodeConcurrency   int
	// Finished runs are forgotten after Retention.
	Retention time.Duration
}

type RunnerDeps struct {
	Log         *logger.Logger
	Bus         bus.Bus
	Observer    Observer
	Collections collectionsmod.Usecases
	Config      Config
}

type StartInput struct {
	Categories     []collection.TraitCategory `json:"categories"`
	CollectionSize int                        `json:"collectionSize"`
	CanvasWidth    int                        `json:"canvasWidth"`
	CanvasHeight   int                        `json:"canvasHeight"`
	Seed           uint64                     `json:"seed"`
}

// RunView is a point-in-time copy of a run.
type RunView struct {
	ID           uuid.UUID                  `json:"id"`
	Status       Status                     `json:"status"`
	Size         int                        `json:"collectionSize"`
	Completed    int                        `json:"completed"`
	Seed         uint64                     `json:"seed"`
	CanvasWidth  int                        `json:"canvasWidth"`
	CanvasHeight int                        `json:"canvasHeight"`
	Items        []collection.GeneratedItem `json:"generatedNFTs"`
	Shortfalls   []engine.Shortfall         `json:"shortfalls,omitempty"`
	Error        string                     `json:"error,omitempty"`
	Channel      string                     `json:"channel"`
	StartedAt    time.Time                  `json:"started_at"`
	FinishedAt   *time.Time                 `json:"finished_at,omitempty"`
}

type run struct {
	mu         sync.RWMutex
	id         uuid.UUID
	userID     uuid.UUID
	cfg        engine.RunConfig
	categories []collection.TraitCategory
	status     Status
	items      []collection.GeneratedItem
	shortfalls []engine.Shortfall
	err        string
	startedAt  time.Time
	finishedAt *time.Time
	cancel     context.CancelFunc
	done       chan struct{}
}

func (r *run) view() *RunView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]collection.GeneratedItem, len(r.items))
	copy(items, r.items)
	return &RunView{
		ID:           r.id,
		Status:       r.status,
		Size:         r.cfg.Size,
		Completed:    len(r.items),
		Seed:         r.cfg.Seed,
		CanvasWidth:  r.cfg.CanvasWidth,
		CanvasHeight: r.cfg.CanvasHeight,
		Items:        items,
		Shortfalls:   r.shortfalls,
		Error:        r.err,
		Channel:      realtime.RunChannel(r.id),
		StartedAt:    r.startedAt,
		FinishedAt:   r.finishedAt,
	}
}

type Runner struct {
	deps RunnerDeps
	log  *logger.Logger
	gen  *engine.Generator

	mu     sync.Mutex
	runs   map[uuid.UUID]*run
	active map[uuid.UUID]uuid.UUID // user -> running run

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup
}

func NewRunner(deps RunnerDeps) *Runner {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	if deps.Config.MaxCollectionSize <= 0 {
		deps.Config.MaxCollectionSize = collection.MaxCollectionSize
	}
	if deps.Config.Retention <= 0 {
		deps.Config.Retention = 30 * time.Minute
	}
	var obs engine.Observer
	if deps.Observer != nil {
		obs = deps.Observer
	}
	baseCtx, stop := context.WithCancel(context.Background())
	return &Runner{
		deps: deps,
		log:  log.With("service", "GenerationRunner"),
		gen: engine.NewGenerator(engine.GeneratorDeps{
			Log:      log,
			Observer: obs,
		}),
		runs:    make(map[uuid.UUID]*run),
		active:  make(map[uuid.UUID]uuid.UUID),
		baseCtx: baseCtx,
		stop:    stop,
	}
}

func (r *Runner) Start(ctx context.Context, userID uuid.UUID, in StartInput) (*RunView, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	if in.CollectionSize < 1 || in.CollectionSize > r.deps.Config.MaxCollectionSize {
		return nil, apierr.New(http.StatusBadRequest, "invalid_collection_size",
			fmt.Errorf("collectionSize must be between 1 and %d", r.deps.Config.MaxCollectionSize))
	}
	if err := collection.ValidateCategories(in.Categories); err != nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_categories", err)
	}

	cfg := engine.RunConfig{
		Size:              in.CollectionSize,
		CanvasWidth:       firstPositive(in.CanvasWidth, r.deps.Config.DefaultCanvasWidth, collection.DefaultCanvasWidth),
		CanvasHeight:      firstPositive(in.CanvasHeight, r.deps.Config.DefaultCanvasHeight, collection.DefaultCanvasHeight),
		Seed:              in.Seed,
		ItemPause:         r.deps.Config.ItemPause,
		DecodeConcurrency: r.deps.Config.DecodeConcurrency,
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	r.mu.Lock()
	r.pruneLocked(time.Now())
	if existing, ok := r.active[userID]; ok {
		r.mu.Unlock()
		return nil, apierr.New(http.StatusConflict, "generation_in_progress",
			fmt.Errorf("run %s is still generating", existing))
	}
	runCtx, cancel := context.WithCancel(r.baseCtx)
	rn := &run{
		id:         uuid.New(),
		userID:     userID,
		cfg:        cfg,
		categories: in.Categories,
		status:     StatusRunning,
		startedAt:  time.Now().UTC(),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	r.runs[rn.id] = rn
	r.active[userID] = rn.id
	r.wg.Add(1)
	r.mu.Unlock()

	if r.deps.Observer != nil {
		r.deps.Observer.RunStarted()
	}
	r.log.Info("generation started", "run_id", rn.id, "user_id", userID, "size", cfg.Size, "seed", cfg.Seed)
	r.publish(ctx, rn, realtime.SSEEventGenerationStarted, map[string]any{
		"runId":          rn.id,
		"collectionSize": cfg.Size,
		"seed":           cfg.Seed,
	})

	go r.execute(runCtx, rn)
	return rn.view(), nil
}

func (r *Runner) execute(ctx context.Context, rn *run) {
	defer r.wg.Done()
	defer close(rn.done)
	defer rn.cancel()

	// events outlive the run context
	pubCtx := context.WithoutCancel(ctx)
	res, err := r.gen.Run(ctx, rn.categories, rn.cfg, func(index int, item collection.GeneratedItem) {
		rn.mu.Lock()
		rn.items = append(rn.items, item)
		rn.mu.Unlock()
		r.publish(pubCtx, rn, realtime.SSEEventGenerationItem, map[string]any{
			"runId": rn.id,
			"index": index,
			"item":  item,
		})
	})

	now := time.Now().UTC()
	rn.mu.Lock()
	rn.finishedAt = &now
	switch {
	case err == nil:
		rn.status = StatusDone
		rn.shortfalls = res.Shortfalls
	case errors.Is(err, context.Canceled):
		rn.status = StatusCancelled
	default:
		rn.status = StatusFailed
		rn.err = err.Error()
	}
	status := rn.status
	completed := len(rn.items)
	rn.mu.Unlock()

	r.mu.Lock()
	if r.active[rn.userID] == rn.id {
		delete(r.active, rn.userID)
	}
	r.mu.Unlock()

	if r.deps.Observer != nil {
		r.deps.Observer.RunFinished(string(status))
	}

	switch status {
	case StatusDone:
		r.log.Info("generation done", "run_id", rn.id, "items", completed)
		r.publish(pubCtx, rn, realtime.SSEEventGenerationDone, map[string]any{
			"runId":      rn.id,
			"count":      completed,
			"shortfalls": res.Shortfalls,
		})
	case StatusCancelled:
		r.log.Info("generation cancelled", "run_id", rn.id, "items", completed)
		r.publish(pubCtx, rn, realtime.SSEEventGenerationCancelled, map[string]any{
			"runId": rn.id,
			"count": completed,
		})
	default:
		r.log.Error("generation failed", "run_id", rn.id, "error", err)
		r.publish(pubCtx, rn, realtime.SSEEventGenerationFailed, map[string]any{
			"runId": rn.id,
			"count": completed,
			"error": err.Error(),
		})
	}
}

func (r *Runner) Get(userID, runID uuid.UUID) (*RunView, error) {
	rn, err := r.lookup(userID, runID)
	if err != nil {
		return nil, err
	}
	return rn.view(), nil
}

func (r *Runner) Owns(userID, runID uuid.UUID) bool {
	_, err := r.lookup(userID, runID)
	return err == nil
}

// Cancel stops a run between items. Cancelling a finished run is a no-op.
func (r *Runner) Cancel(userID, runID uuid.UUID) (*RunView, error) {
	rn, err := r.lookup(userID, runID)
	if err != nil {
		return nil, err
	}
	rn.cancel()
	return rn.view(), nil
}

// Wait blocks until the run has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context, userID, runID uuid.UUID) (*RunView, error) {
	rn, err := r.lookup(userID, runID)
	if err != nil {
		return nil, err
	}
	select {
	case <-rn.done:
		return rn.view(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Save persists the items of a finished run as a collection.
func (r *Runner) Save(ctx context.Context, userID, runID uuid.UUID, name string) (uuid.UUID, error) {
	rn, err := r.lookup(userID, runID)
	if err != nil {
		return uuid.Nil, err
	}
	v := rn.view()
	if v.Status == StatusRunning {
		return uuid.Nil, apierr.New(http.StatusConflict, "generation_not_finished", fmt.Errorf("run %s is still generating", runID))
	}
	if len(v.Items) == 0 {
		return uuid.Nil, apierr.New(http.StatusConflict, "generation_empty", fmt.Errorf("run %s produced no items", runID))
	}
	return r.deps.Collections.Save(ctx, userID, collectionsmod.SaveInput{
		Name:         name,
		CanvasWidth:  v.CanvasWidth,
		CanvasHeight: v.CanvasHeight,
		Categories:   rn.categories,
		Items:        v.Items,
	})
}

// Close cancels every running generation and waits for them to stop.
func (r *Runner) Close() {
	r.stop()
	r.wg.Wait()
}

func (r *Runner) lookup(userID, runID uuid.UUID) (*run, error) {
	if userID == uuid.Nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", nil)
	}
	r.mu.Lock()
	rn, ok := r.runs[runID]
	r.mu.Unlock()
	if !ok || rn.userID != userID {
		return nil, apierr.New(http.StatusNotFound, "generation_not_found", nil)
	}
	return rn, nil
}

func (r *Runner) pruneLocked(now time.Time) {
	for id, rn := range r.runs {
		rn.mu.RLock()
		expired := rn.finishedAt != nil && now.Sub(*rn.finishedAt) > r.deps.Config.Retention
		rn.mu.RUnlock()
		if expired {
			delete(r.runs, id)
		}
	}
}

func (r *Runner) publish(ctx context.Context, rn *run, event realtime.SSEEvent, data any) {
	if r.deps.Bus == nil {
		return
	}
	msg := realtime.SSEMessage{Channel: realtime.RunChannel(rn.id), Event: event, Data: data}
	if err := r.deps.Bus.Publish(ctx, msg); err != nil {
		r.log.Warn("publish failed", "run_id", rn.id, "event", event, "error", err)
	}
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
