package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

func TestAdmissibleDoesntMix(t *testing.T) {
	crown := variant("crown", 1, rule(collection.RuleDoesntMix, "red"))
	reg := NewRegistry([]collection.TraitCategory{
		category("bg", 0, variant("red", 1), variant("blue", 1)),
		category("hat", 1, crown),
	})
	eval := NewEvaluator(reg)

	require.False(t, eval.Admissible(&crown, Selection{"bg": "red"}))
	require.True(t, eval.Admissible(&crown, Selection{"bg": "blue"}))
	require.True(t, eval.Admissible(&crown, Selection{}))
}

func TestAdmissibleOnlyMix(t *testing.T) {
	reg := NewRegistry([]collection.TraitCategory{
		category("bg", 0, variant("red", 1), variant("blue", 1)),
		category("body", 1, variant("robot", 1)),
		category("hat", 2, variant("crown", 1)),
	})
	eval := NewEvaluator(reg)
	crown := variant("crown", 1, rule(collection.RuleOnlyMix, "blue"))

	cases := []struct {
		name string
		sel  Selection
		want bool
	}{
		{"nothing selected yet", Selection{}, true},
		{"target selected", Selection{"bg": "blue"}, true},
		{"target category committed elsewhere", Selection{"bg": "red"}, false},
		{"target category not reached", Selection{"body": "robot"}, true},
		{"target among several", Selection{"bg": "blue", "body": "robot"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, eval.Admissible(&crown, tc.sel))
		})
	}
}

func TestAdmissibleOnlyMixDanglingTarget(t *testing.T) {
	reg := NewRegistry([]collection.TraitCategory{category("bg", 0, variant("red", 1))})
	eval := NewEvaluator(reg)
	crown := variant("crown", 1, rule(collection.RuleOnlyMix, "deleted"))
	require.True(t, eval.Admissible(&crown, Selection{"bg": "red"}))
}

func TestAdmissibleIgnoresPairingAndQuota(t *testing.T) {
	reg := NewRegistry([]collection.TraitCategory{category("bg", 0, variant("red", 1))})
	eval := NewEvaluator(reg)
	v := variant("crown", 1, rule(collection.RuleAlwaysPairs, "red"), quotaRule(3))
	require.True(t, eval.Admissible(&v, Selection{"bg": "red"}))
}

func TestFilterKeepsOrder(t *testing.T) {
	reg := NewRegistry([]collection.TraitCategory{
		category("bg", 0, variant("red", 1)),
		category("hat", 1,
			variant("crown", 1, rule(collection.RuleDoesntMix, "red")),
			variant("cap", 1),
			variant("beanie", 1),
		),
	})
	hat, _ := reg.Category("hat")
	out := NewEvaluator(reg).Filter(Variants(hat), Selection{"bg": "red"})
	require.Len(t, out, 2)
	require.Equal(t, "cap", out[0].ID)
	require.Equal(t, "beanie", out[1].ID)
}
