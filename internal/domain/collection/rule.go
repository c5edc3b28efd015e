package collection

import (
	"fmt"
	"strings"
)

// RuleKind tags the constraint a Rule expresses. The payload fields of Rule
// are shared across kinds; Value is only meaningful for RuleAppearsAtLeast.
type RuleKind string

const (
	// RuleDoesntMix: the subject is never selected alongside any target.
	RuleDoesntMix RuleKind = "doesnt_mix"
	// RuleOnlyMix: once a target's category has committed, it must have committed to a target.
	RuleOnlyMix RuleKind = "only_mix"
	// RuleAlwaysPairs: selecting the subject pulls every target into the item.
	RuleAlwaysPairs RuleKind = "always_pairs"
	// RuleAppearsAtLeast: the subject should appear Value times per run.
	RuleAppearsAtLeast RuleKind = "appears_at_least"
)

var ruleLabels = map[RuleKind]string{
	RuleDoesntMix:      "Doesn't Mix With",
	RuleOnlyMix:        "Only Mix With",
	RuleAlwaysPairs:    "Always Pairs With",
	RuleAppearsAtLeast: "Appears At Least",
}

func (k RuleKind) Valid() bool {
	_, ok := ruleLabels[k]
	return ok
}

func (k RuleKind) Label() string {
	if l, ok := ruleLabels[k]; ok {
		return l
	}
	return string(k)
}

// Rule is owned by exactly one TraitVariant (its subject) and is directional.
type Rule struct {
	ID             string   `json:"id"`
	Type           RuleKind `json:"type"`
	TargetTraitIDs []string `json:"targetTraitIds"`
	Value          int      `json:"value,omitempty"`
}

func (r Rule) Validate() error {
	if !r.Type.Valid() {
		return fmt.Errorf("%w: unknown rule type %q", ErrInvalid, r.Type)
	}
	if r.Type == RuleAppearsAtLeast {
		if r.Value < 1 {
			return fmt.Errorf("%w: %s rule needs a positive value", ErrInvalid, r.Type)
		}
		return nil
	}
	if len(r.TargetTraitIDs) == 0 {
		return fmt.Errorf("%w: %s rule needs at least one target", ErrInvalid, r.Type)
	}
	for _, id := range r.TargetTraitIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: %s rule has a blank target", ErrInvalid, r.Type)
		}
	}
	return nil
}
