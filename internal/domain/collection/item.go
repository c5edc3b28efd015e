package collection

// TraitRef is one (category, trait) pair recorded on a generated item.
type TraitRef struct {
	Category string `json:"category"`
	Trait    string `json:"trait"`
	TraitID  string `json:"traitId"`
}

// GeneratedItem is immutable once produced by a run.
type GeneratedItem struct {
	ID      string     `json:"id"`
	DataURL string     `json:"dataUrl"`
	Traits  []TraitRef `json:"traits"`
}

// TraitIDs lists the item's selected variant ids in category order.
func (it GeneratedItem) TraitIDs() []string {
	out := make([]string, 0, len(it.Traits))
	for _, t := range it.Traits {
		out = append(out, t.TraitID)
	}
	return out
}
