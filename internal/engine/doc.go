// Package engine composes collection items from trait categories.
//
// A run builds a Registry once, then for every item selects one variant per
// category (quota-bound variants first, rule-admissible variants only, rarity
// weighted), expands the selection through always_pairs rules, composites the
// selected layers in category order and records the result. Runs are strictly
// sequential: rule admissibility depends on earlier selections of the same
// item, quota counters are read before they are written, and layer order is
// the z-order of the output image.
//
// Nothing in a run is treated as fatal. A category with no admissible variant
// is skipped for that item, an undecodable layer is drawn as nothing, and an
// empty registry yields an empty run.
package engine
