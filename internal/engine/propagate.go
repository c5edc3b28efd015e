package engine

import "github.com/yungbote/traitforge-backend/internal/domain/collection"

// Propagate expands sel with always_pairs targets until a full pass adds
// nothing. A target whose category is already filled is dropped: the first
// selection for a category always wins. sel itself is left untouched.
func Propagate(sel Selection, reg *Registry) Selection {
	out := sel.Clone()
	for changed := true; changed; {
		changed = false
		for _, cat := range reg.Categories() {
			variantID, ok := out[cat.ID]
			if !ok {
				continue
			}
			v, ok := reg.Variant(variantID)
			if !ok {
				continue
			}
			for _, rule := range v.RulesOf(collection.RuleAlwaysPairs) {
				for _, target := range rule.TargetTraitIDs {
					owner, ok := reg.CategoryOf(target)
					if !ok || out.Has(owner) {
						continue
					}
					out[owner] = target
					changed = true
				}
			}
		}
	}
	return out
}
