package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

// Stage names the orchestrator phase an item is in. Used for span events.
type Stage string

const (
	StageSelecting   Stage = "selecting"
	StagePropagating Stage = "propagating"
	StageRendering   Stage = "rendering"
	StageRecording   Stage = "recording"
	StageDone        Stage = "done"
)

type RunConfig struct {
	Size              int
	CanvasWidth       int
	CanvasHeight      int
	Seed              uint64
	ItemPause         time.Duration
	DecodeConcurrency int
}

type RunResult struct {
	Items      []collection.GeneratedItem
	Quota      QuotaState
	Shortfalls []Shortfall
	Seed       uint64
}

// ItemFunc is called once per completed item, in order.
type ItemFunc func(index int, item collection.GeneratedItem)

// Observer receives per-run counters. Implementations must be cheap.
type Observer interface {
	ItemGenerated()
	CategorySkipped(category string)
	DecodeFailed(variantID string)
	RunCompleted(items int, shortfalls int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ItemGenerated()                       {}
func (nopObserver) CategorySkipped(string)               {}
func (nopObserver) DecodeFailed(string)                  {}
func (nopObserver) RunCompleted(int, int, time.Duration) {}

type GeneratorDeps struct {
	Log      *logger.Logger
	Decoder  ImageDecoder
	Observer Observer
}

type Generator struct {
	log      *logger.Logger
	decoder  ImageDecoder
	observer Observer
	tracer   trace.Tracer
}

func NewGenerator(deps GeneratorDeps) *Generator {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	obs := deps.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	dec := deps.Decoder
	if dec == nil {
		dec = DataURLDecoder{}
	}
	return &Generator{
		log:      log.With("component", "Generator"),
		decoder:  dec,
		observer: obs,
		tracer:   otel.Tracer("traitforge/engine"),
	}
}

// SelectTraits picks at most one variant per category, in z-order, honoring
// quota eligibility and the exclusion rules against what has already been
// chosen for this item. It returns the categories that ended up empty.
func SelectTraits(reg *Registry, sampler *Sampler, quota QuotaState) (Selection, []string) {
	eval := NewEvaluator(reg)
	sel := make(Selection, len(reg.Categories()))
	var skipped []string
	for _, cat := range reg.Categories() {
		if len(cat.Images) == 0 || sel.Has(cat.ID) {
			continue
		}
		var pick *collection.TraitVariant
		if eligible := eval.Filter(QuotaEligible(cat, quota), sel); len(eligible) > 0 {
			pick, _ = sampler.Pick(eligible)
		}
		if pick == nil {
			pick, _ = sampler.Pick(eval.Filter(Variants(cat), sel))
		}
		if pick == nil {
			skipped = append(skipped, cat.ID)
			continue
		}
		sel[cat.ID] = pick.ID
	}
	return sel, skipped
}

// TraitRefs lists the item's traits in category order, one per category id.
// Selections pointing at unknown variants are dropped.
func TraitRefs(sel Selection, reg *Registry) []collection.TraitRef {
	out := make([]collection.TraitRef, 0, len(sel))
	seen := make(map[string]bool, len(sel))
	for _, cat := range reg.Categories() {
		id, ok := sel[cat.ID]
		if !ok || seen[cat.ID] {
			continue
		}
		seen[cat.ID] = true
		v, ok := reg.Variant(id)
		if !ok {
			continue
		}
		out = append(out, collection.TraitRef{Category: cat.Name, Trait: v.Name, TraitID: v.ID})
	}
	return out
}

// Run generates cfg.Size items. Items are appended, and onItem called, only
// after the item is rendered and its quota counts recorded. On cancellation
// the items completed so far are returned alongside ctx.Err().
func (g *Generator) Run(ctx context.Context, categories []collection.TraitCategory, cfg RunConfig, onItem ItemFunc) (*RunResult, error) {
	started := time.Now()
	if cfg.CanvasWidth <= 0 {
		cfg.CanvasWidth = collection.DefaultCanvasWidth
	}
	if cfg.CanvasHeight <= 0 {
		cfg.CanvasHeight = collection.DefaultCanvasHeight
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	ctx, span := g.tracer.Start(ctx, "generator.run", trace.WithAttributes(
		attribute.Int("run.size", cfg.Size),
		attribute.Int64("run.seed", int64(cfg.Seed)),
	))
	defer span.End()

	reg := NewRegistry(categories)
	quota := NewQuotaState()
	res := &RunResult{Quota: quota, Seed: cfg.Seed}
	if reg.Empty() || cfg.Size <= 0 {
		g.log.Info("nothing to generate", "size", cfg.Size, "categories", len(categories))
		g.observer.RunCompleted(0, 0, time.Since(started))
		return res, nil
	}

	cache := NewImageCache(g.decoder, cfg.DecodeConcurrency)
	if err := cache.Warm(ctx, reg); err != nil {
		span.SetStatus(codes.Error, err.Error())
		g.observer.RunCompleted(0, 0, time.Since(started))
		return res, err
	}
	compositor := NewCompositor(cfg.CanvasWidth, cfg.CanvasHeight, cache)
	sampler := NewSampler(cfg.Seed)
	res.Items = make([]collection.GeneratedItem, 0, cfg.Size)

	for i := 0; i < cfg.Size; i++ {
		if err := ctx.Err(); err != nil {
			g.log.Info("generation cancelled", "completed", len(res.Items), "size", cfg.Size)
			span.SetStatus(codes.Error, "cancelled")
			g.observer.RunCompleted(len(res.Items), 0, time.Since(started))
			return res, err
		}

		span.AddEvent(string(StageSelecting), trace.WithAttributes(attribute.Int("item", i)))
		sel, skipped := SelectTraits(reg, sampler, quota)
		for _, catID := range skipped {
			g.log.Debug("category skipped: no admissible variant", "item", i, "category_id", catID)
			g.observer.CategorySkipped(catID)
		}

		span.AddEvent(string(StagePropagating))
		sel = Propagate(sel, reg)

		span.AddEvent(string(StageRendering))
		frame := compositor.Render(ctx, sel, reg)
		for _, id := range frame.Skipped {
			g.log.Warn("trait image could not be decoded; layer left transparent", "item", i, "trait_id", id)
			g.observer.DecodeFailed(id)
		}
		dataURL, err := frame.DataURL()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			g.observer.RunCompleted(len(res.Items), 0, time.Since(started))
			return res, fmt.Errorf("encode item %d: %w", i, err)
		}

		span.AddEvent(string(StageRecording))
		item := collection.GeneratedItem{
			ID:      "nft-" + uuid.NewString(),
			DataURL: dataURL,
			Traits:  TraitRefs(sel, reg),
		}
		quota.Record(item.TraitIDs()...)
		res.Items = append(res.Items, item)
		g.observer.ItemGenerated()
		if onItem != nil {
			onItem(i, item)
		}

		if cfg.ItemPause > 0 && i < cfg.Size-1 {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.ItemPause):
			}
		}
	}

	res.Shortfalls = Shortfalls(reg, quota)
	for _, s := range res.Shortfalls {
		g.log.Warn("quota not met", "trait", s.Trait, "category", s.Category, "required", s.Required, "actual", s.Actual)
	}
	span.AddEvent(string(StageDone), trace.WithAttributes(attribute.Int("items", len(res.Items))))
	g.observer.RunCompleted(len(res.Items), len(res.Shortfalls), time.Since(started))
	g.log.Info("generation complete", "items", len(res.Items), "shortfalls", len(res.Shortfalls), "elapsed", time.Since(started))
	return res, nil
}
