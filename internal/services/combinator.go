package services

// Relaxation rule names, stable identifiers surfaced in logs, metrics and
// API responses whenever the combinator loosens a filter.
const (
	relaxStemUnion    = "stem_intersection_to_union"
	relaxFormatStem   = "format_stem_intersection"
	relaxFormatAccess = "format_accessibility_intersection"
	relaxFormatOnly   = "format_candidates_only"
	relaxFinalFormat  = "final_format_candidates_only"
	relaxFinalUnion   = "final_dimension_union"
)

// relaxation records one fallback step the combinator took, with the
// candidate counts before and after.
type relaxation struct {
	Rule string
	From int
	To   int
}

// dimensionSets carries the per-dimension candidate sets into the
// combinator. An empty set means the dimension contributed nothing, whether
// because the student expressed no preference or because its artifacts are
// disabled; the combinator treats both the same way.
type dimensionSets struct {
	accessibility candidateSet
	academic      candidateSet
	stem          candidateSet
	format        candidateSet
	universe      int
}

// combineCandidates merges the dimension sets through an ordered policy:
//
//  1. Union of the two clustered dimensions (or whichever is non-empty, or
//     the whole catalog). Union, not intersection: two independent
//     dimensions intersected would over-constrain.
//  2. Intersect with STEM interests; below minStem candidates the
//     intersection is discarded for the three-way union instead.
//  3. Intersect with format preferences, which are mandatory. Below
//     minFormat the ladder retries format∩stem, then format∩accessibility,
//     then settles for the format set alone.
//  4. Safety valve: still below minFormat, fall back to the format set if
//     one exists, otherwise to the union of everything collected, otherwise
//     to the whole catalog.
//
// The returned set is non-empty whenever the catalog is non-empty. Every
// fallback taken is reported in order.
func combineCandidates(sets dimensionSets, minStem, minFormat int) (candidateSet, []relaxation) {
	var relaxations []relaxation

	var current candidateSet
	switch {
	case len(sets.accessibility) > 0 && len(sets.academic) > 0:
		current = sets.accessibility.union(sets.academic)
	case len(sets.accessibility) > 0:
		current = sets.accessibility
	case len(sets.academic) > 0:
		current = sets.academic
	default:
		current = universeSet(sets.universe)
	}

	if len(sets.stem) > 0 {
		intersected := current.intersect(sets.stem)
		if len(intersected) < minStem {
			widened := sets.accessibility.union(sets.academic).union(sets.stem)
			relaxations = append(relaxations, relaxation{Rule: relaxStemUnion, From: len(intersected), To: len(widened)})
			current = widened
		} else {
			current = intersected
		}
	}

	if len(sets.format) > 0 {
		intersected := current.intersect(sets.format)
		if len(intersected) >= minFormat {
			current = intersected
		} else {
			relaxed := intersected
			if len(sets.stem) > 0 {
				relaxed = sets.format.intersect(sets.stem)
				relaxations = append(relaxations, relaxation{Rule: relaxFormatStem, From: len(intersected), To: len(relaxed)})
				if len(relaxed) < minFormat && len(sets.accessibility) > 0 {
					before := len(relaxed)
					relaxed = sets.format.intersect(sets.accessibility)
					relaxations = append(relaxations, relaxation{Rule: relaxFormatAccess, From: before, To: len(relaxed)})
				}
			}
			if len(relaxed) < minFormat {
				relaxations = append(relaxations, relaxation{Rule: relaxFormatOnly, From: len(relaxed), To: len(sets.format)})
				relaxed = sets.format
			}
			current = relaxed
		}
	}

	if len(current) < minFormat {
		before := len(current)
		if len(sets.format) > 0 {
			current = sets.format
			relaxations = append(relaxations, relaxation{Rule: relaxFinalFormat, From: before, To: len(current)})
		} else {
			widened := sets.accessibility.union(sets.academic).union(sets.stem)
			if len(widened) == 0 {
				widened = universeSet(sets.universe)
			}
			current = widened
			relaxations = append(relaxations, relaxation{Rule: relaxFinalUnion, From: before, To: len(current)})
		}
	}

	return current, relaxations
}
