package engine

import "github.com/yungbote/traitforge-backend/internal/domain/collection"

// Evaluator decides whether a candidate may join the selections already
// committed for the current item.
type Evaluator struct {
	reg *Registry
}

func NewEvaluator(reg *Registry) Evaluator { return Evaluator{reg: reg} }

func (e Evaluator) Admissible(candidate *collection.TraitVariant, sel Selection) bool {
	for _, rule := range candidate.Rules {
		switch rule.Type {
		case collection.RuleDoesntMix:
			for _, target := range rule.TargetTraitIDs {
				if sel.Contains(target) {
					return false
				}
			}
		case collection.RuleOnlyMix:
			if !e.onlyMixAllows(rule, sel) {
				return false
			}
		case collection.RuleAlwaysPairs, collection.RuleAppearsAtLeast:
			// applied by Propagate and the quota pass
		}
	}
	return true
}

// onlyMixAllows blocks only after a category owning one of the targets has
// committed to something other than a target. While none of the target
// categories has been decided the rule does not block, so outcomes depend on
// category order when several only_mix rules interact.
func (e Evaluator) onlyMixAllows(rule collection.Rule, sel Selection) bool {
	if len(rule.TargetTraitIDs) == 0 || len(sel) == 0 {
		return true
	}
	targetCats := make(map[string]bool, len(rule.TargetTraitIDs))
	for _, target := range rule.TargetTraitIDs {
		if sel.Contains(target) {
			return true
		}
		if cat, ok := e.reg.CategoryOf(target); ok {
			targetCats[cat] = true
		}
	}
	for cat := range sel {
		if targetCats[cat] {
			return false
		}
	}
	return true
}

// Filter keeps the admissible variants, preserving order.
func (e Evaluator) Filter(candidates []*collection.TraitVariant, sel Selection) []*collection.TraitVariant {
	out := make([]*collection.TraitVariant, 0, len(candidates))
	for _, c := range candidates {
		if e.Admissible(c, sel) {
			out = append(out, c)
		}
	}
	return out
}
