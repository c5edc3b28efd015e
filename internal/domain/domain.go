package domain

import "github.com/yungbote/traitforge-backend/internal/domain/collection"

type (
	Collection   = collection.Collection
	GeneratedNFT = collection.GeneratedNFT

	TraitCategory = collection.TraitCategory
	TraitVariant  = collection.TraitVariant
	Rule          = collection.Rule
	RuleKind      = collection.RuleKind
	TraitRef      = collection.TraitRef
	GeneratedItem = collection.GeneratedItem
)

const (
	RuleDoesntMix      = collection.RuleDoesntMix
	RuleOnlyMix        = collection.RuleOnlyMix
	RuleAlwaysPairs    = collection.RuleAlwaysPairs
	RuleAppearsAtLeast = collection.RuleAppearsAtLeast
)
