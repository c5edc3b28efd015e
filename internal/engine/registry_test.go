package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

func TestRegistrySortsByOrder(t *testing.T) {
	reg := NewRegistry([]collection.TraitCategory{
		category("hat", 2, variant("crown", 1)),
		category("bg", 0, variant("red", 1)),
		category("body", 1, variant("robot", 1)),
	})
	var ids []string
	for _, c := range reg.Categories() {
		ids = append(ids, c.ID)
	}
	require.Equal(t, []string{"bg", "body", "hat"}, ids)

	owner, ok := reg.CategoryOf("crown")
	require.True(t, ok)
	require.Equal(t, "hat", owner)

	_, ok = reg.CategoryOf("ghost")
	require.False(t, ok)
}

func TestRegistryDoesNotAliasInput(t *testing.T) {
	cats := []collection.TraitCategory{category("bg", 0, variant("red", 1))}
	reg := NewRegistry(cats)
	cats[0].ID = "changed"
	_, ok := reg.Category("bg")
	require.True(t, ok)
}

func TestRegistryEmpty(t *testing.T) {
	require.True(t, NewRegistry(nil).Empty())
	require.True(t, NewRegistry([]collection.TraitCategory{category("bg", 0)}).Empty())
	require.False(t, NewRegistry([]collection.TraitCategory{category("bg", 0, variant("red", 1))}).Empty())
}

func TestSelectionHelpers(t *testing.T) {
	sel := Selection{"bg": "red"}
	require.True(t, sel.Has("bg"))
	require.True(t, sel.Contains("red"))
	require.False(t, sel.Contains("bg"))
	clone := sel.Clone()
	clone["hat"] = "crown"
	require.False(t, sel.Has("hat"))
}
