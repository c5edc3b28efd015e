package engine

import (
	"sort"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

// Registry is the per-run arena of categories, sorted by z-order, plus the
// variant indexes the evaluator and propagator look up on every item.
type Registry struct {
	categories []*collection.TraitCategory
	byID       map[string]*collection.TraitCategory
	variants   map[string]*collection.TraitVariant
	owner      map[string]string
}

func NewRegistry(cats []collection.TraitCategory) *Registry {
	r := &Registry{
		categories: make([]*collection.TraitCategory, 0, len(cats)),
		byID:       make(map[string]*collection.TraitCategory, len(cats)),
		variants:   make(map[string]*collection.TraitVariant),
		owner:      make(map[string]string),
	}
	for i := range cats {
		c := cats[i]
		r.categories = append(r.categories, &c)
	}
	sort.SliceStable(r.categories, func(i, j int) bool {
		return r.categories[i].Order < r.categories[j].Order
	})
	for _, c := range r.categories {
		if _, dup := r.byID[c.ID]; !dup {
			r.byID[c.ID] = c
		}
		for j := range c.Images {
			v := &c.Images[j]
			if _, dup := r.variants[v.ID]; dup {
				continue
			}
			r.variants[v.ID] = v
			r.owner[v.ID] = c.ID
		}
	}
	return r
}

// Categories returns the categories in compositing order.
func (r *Registry) Categories() []*collection.TraitCategory { return r.categories }

func (r *Registry) Category(id string) (*collection.TraitCategory, bool) {
	c, ok := r.byID[id]
	return c, ok
}

func (r *Registry) Variant(id string) (*collection.TraitVariant, bool) {
	v, ok := r.variants[id]
	return v, ok
}

// CategoryOf resolves the category owning a variant id. Dangling ids report false.
func (r *Registry) CategoryOf(variantID string) (string, bool) {
	c, ok := r.owner[variantID]
	return c, ok
}

// Empty reports whether a run over this registry can produce anything.
func (r *Registry) Empty() bool {
	for _, c := range r.categories {
		if len(c.Images) > 0 {
			return false
		}
	}
	return true
}

// Variants returns pointers into the category's variant list, in insertion order.
func Variants(c *collection.TraitCategory) []*collection.TraitVariant {
	out := make([]*collection.TraitVariant, 0, len(c.Images))
	for i := range c.Images {
		out = append(out, &c.Images[i])
	}
	return out
}

// Selection maps category id to the variant id chosen for the current item.
type Selection map[string]string

func (s Selection) Has(categoryID string) bool {
	_, ok := s[categoryID]
	return ok
}

// Contains reports whether variantID is selected in any category.
func (s Selection) Contains(variantID string) bool {
	for _, v := range s {
		if v == variantID {
			return true
		}
	}
	return false
}

func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
