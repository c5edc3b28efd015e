package engine

import "github.com/yungbote/traitforge-backend/internal/domain/collection"

// QuotaState counts appearances per variant id across one run.
type QuotaState map[string]int

func NewQuotaState() QuotaState { return QuotaState{} }

func (q QuotaState) Record(variantIDs ...string) {
	for _, id := range variantIDs {
		q[id]++
	}
}

func (q QuotaState) Count(variantID string) int { return q[variantID] }

// QuotaEligible returns the category's variants that still owe appearances
// under an appears_at_least rule.
func QuotaEligible(cat *collection.TraitCategory, counts QuotaState) []*collection.TraitVariant {
	var out []*collection.TraitVariant
	for i := range cat.Images {
		v := &cat.Images[i]
		if owesAppearances(v, counts) {
			out = append(out, v)
		}
	}
	return out
}

func owesAppearances(v *collection.TraitVariant, counts QuotaState) bool {
	for _, r := range v.RulesOf(collection.RuleAppearsAtLeast) {
		if r.Value > 0 && counts[v.ID] < r.Value {
			return true
		}
	}
	return false
}

// Shortfall describes a quota left unmet at the end of a run.
type Shortfall struct {
	TraitID  string `json:"traitId"`
	Trait    string `json:"trait"`
	Category string `json:"category"`
	Required int    `json:"required"`
	Actual   int    `json:"actual"`
}

// Shortfalls lists every quota the run did not reach, in category order.
func Shortfalls(reg *Registry, counts QuotaState) []Shortfall {
	var out []Shortfall
	for _, cat := range reg.Categories() {
		for i := range cat.Images {
			v := &cat.Images[i]
			required := 0
			for _, r := range v.Rules {
				if r.Type == collection.RuleAppearsAtLeast && r.Value > required {
					required = r.Value
				}
			}
			if required > 0 && counts[v.ID] < required {
				out = append(out, Shortfall{
					TraitID:  v.ID,
					Trait:    v.Name,
					Category: cat.Name,
					Required: required,
					Actual:   counts[v.ID],
				})
			}
		}
	}
	return out
}
