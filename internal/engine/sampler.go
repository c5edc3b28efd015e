package engine

import (
	"math/rand/v2"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

// Sampler draws rarity-weighted variants. It is not safe for concurrent use;
// each run owns one.
type Sampler struct {
	rng *rand.Rand
}

func NewSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick returns one of variants with probability proportional to its rarity.
// An empty slice yields false: the category is skipped for this item.
func (s *Sampler) Pick(variants []*collection.TraitVariant) (*collection.TraitVariant, bool) {
	if len(variants) == 0 {
		return nil, false
	}
	total := 0.0
	for _, v := range variants {
		total += weight(v)
	}
	remaining := s.rng.Float64() * total
	for _, v := range variants {
		w := weight(v)
		if w == 0 {
			continue
		}
		remaining -= w
		if remaining <= 0 {
			return v, true
		}
	}
	return variants[len(variants)-1], true
}

func weight(v *collection.TraitVariant) float64 {
	if v.Rarity < 0 {
		return 0
	}
	return float64(v.Rarity)
}
