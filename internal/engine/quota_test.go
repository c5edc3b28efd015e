package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

func TestQuotaEligible(t *testing.T) {
	cat := category("eyes", 0, variant("laser", 1, quotaRule(2)), variant("normal", 10))
	q := NewQuotaState()

	eligible := QuotaEligible(&cat, q)
	require.Len(t, eligible, 1)
	require.Equal(t, "laser", eligible[0].ID)

	q.Record("laser", "laser")
	require.Empty(t, QuotaEligible(&cat, q))
	require.Equal(t, 2, q.Count("laser"))
}

func TestShortfalls(t *testing.T) {
	reg := NewRegistry([]collection.TraitCategory{
		category("eyes", 0, variant("laser", 1, quotaRule(3), quotaRule(5)), variant("normal", 1)),
	})
	q := NewQuotaState()
	q.Record("laser", "laser")
	got := Shortfalls(reg, q)
	require.Len(t, got, 1)
	require.Equal(t, Shortfall{TraitID: "laser", Trait: "laser", Category: "eyes", Required: 5, Actual: 2}, got[0])

	q.Record("laser", "laser", "laser")
	require.Empty(t, Shortfalls(reg, q))
}
