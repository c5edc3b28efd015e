package collection

import (
	"fmt"
	"strings"
)

// TraitVariant is one selectable image option within a category.
type TraitVariant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"dataUrl"`
	Rarity int    `json:"rarity"`
	Rules  []Rule `json:"rules"`
}

func (v TraitVariant) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("%w: trait without id", ErrInvalid)
	}
	if v.Rarity < 1 {
		return fmt.Errorf("%w: trait %q rarity must be positive", ErrInvalid, v.Name)
	}
	for _, r := range v.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("trait %q: %w", v.Name, err)
		}
	}
	return nil
}

// RulesOf returns the subject's rules of the given kind.
func (v TraitVariant) RulesOf(kind RuleKind) []Rule {
	var out []Rule
	for _, r := range v.Rules {
		if r.Type == kind {
			out = append(out, r)
		}
	}
	return out
}

// TraitCategory is an ordered group of mutually-alternative variants. Order is
// the compositing z-order: lower values paint first.
type TraitCategory struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Images   []TraitVariant `json:"images"`
	Expanded bool           `json:"expanded"`
	Order    int            `json:"order"`
}

func (c TraitCategory) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: category without id", ErrInvalid)
	}
	for _, v := range c.Images {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
	}
	return nil
}

// ValidateCategories checks each category plus id uniqueness across the registry.
func ValidateCategories(cats []TraitCategory) error {
	seenCat := make(map[string]bool, len(cats))
	seenVariant := make(map[string]bool)
	for _, c := range cats {
		if err := c.Validate(); err != nil {
			return err
		}
		if seenCat[c.ID] {
			return fmt.Errorf("%w: duplicate category id %q", ErrInvalid, c.ID)
		}
		seenCat[c.ID] = true
		for _, v := range c.Images {
			if seenVariant[v.ID] {
				return fmt.Errorf("%w: duplicate trait id %q", ErrInvalid, v.ID)
			}
			seenVariant[v.ID] = true
		}
	}
	return nil
}
