// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package interval

import (
	"sort"

	"phi-arbiter/internal/spans"
)

// Composite score weights for arbitration. Longer spans capture more
// context, confidence reflects detection quality, specificity ranks
// structured patterns over fuzzy matches, priority carries the
// filter-level ordering.
const (
	lengthWeight     = 40.0
	confidenceWeight = 30.0
	typeWeight       = 20.0
	priorityWeight   = 10.0

	lengthNormalizer   = 50.0
	priorityNormalizer = 100.0

	// scoreEpsilon treats near-equal float scores as ties so ordering
	// falls through to the positional tie-breaks.
	scoreEpsilon = 0.001

	// replaceConfidence is the floor a contained, more-specific span
	// must reach to replace an already-accepted container.
	replaceConfidence = 0.9
)

// SpanScore computes the composite arbitration score for a span. A
// NAME span containing a structure word has its length component
// zeroed: an over-extended name that swallowed an adjacent field label
// must not win on length.
func SpanScore(s *spans.Span) float64 {
	lengthScore := minF(float64(s.Length())/lengthNormalizer, 1.0) * lengthWeight
	if s.Type == spans.TypeName && spans.ContainsStructureWord(s.Text) {
		lengthScore = 0
	}

	confidenceScore := s.Confidence * confidenceWeight
	typeScore := float64(spans.TypeSpecificity(s.Type)) / 100.0 * typeWeight
	priorityScore := minF(float64(s.Priority)/priorityNormalizer, 1.0) * priorityWeight

	return lengthScore + confidenceScore + typeScore + priorityScore
}

// DropOverlappingSpans reduces a possibly-overlapping span set to a
// non-overlapping, position-sorted subset using the reference tree
// backend.
func DropOverlappingSpans(in []*spans.Span) []*spans.Span {
	return DropOverlappingSpansWith(NewTreeBackend(), in)
}

// DropOverlappingSpansWith runs the arbitration algorithm against the
// given backend:
//
//  1. Deduplicate exact (start, end, type) triples, keeping the
//     highest-confidence instance.
//  2. Score and sort: score descending, start ascending, length
//     descending (a total order, so the result is deterministic).
//  3. Greedily accept spans; overlaps against already-accepted spans
//     are resolved by the containment policy below.
//  4. Return the accepted set sorted by position.
//
// Containment policy: a new span containing an already-accepted span
// is rejected; specificity alone does not override an accepted
// contained span. An accepted span containing the new span keeps its
// place unless the new span is strictly more specific with confidence
// >= 0.9, in which case it replaces the accepted one. Partial overlaps
// always go to the earlier-accepted (higher-scored) span.
//
// The algorithm is deliberately greedy rather than a weighted interval
// scheduling solve: fewer, well-scored spans and deterministic output
// matter more here than a provably maximum-score set.
func DropOverlappingSpansWith(backend Backend, in []*spans.Span) []*spans.Span {
	switch len(in) {
	case 0:
		return []*spans.Span{}
	case 1:
		return []*spans.Span{in[0]}
	}

	candidates := spans.Deduplicate(in)

	type scored struct {
		span  *spans.Span
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, s := range candidates {
		ranked[i] = scored{span: s, score: SpanScore(s)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if diff := a.score - b.score; diff > scoreEpsilon || diff < -scoreEpsilon {
			return a.score > b.score
		}
		if a.span.Start != b.span.Start {
			return a.span.Start < b.span.Start
		}
		if a.span.Length() != b.span.Length() {
			return a.span.Length() > b.span.Length()
		}
		if a.span.Type != b.span.Type {
			return a.span.Type < b.span.Type
		}
		return a.span.Text < b.span.Text
	})

	backend.Clear()
	accepted := make([]*spans.Span, 0, len(ranked))

	for _, cand := range ranked {
		overlaps := backend.FindOverlaps(cand.span.Start, cand.span.End)
		if len(overlaps) == 0 {
			backend.Insert(cand.span)
			accepted = append(accepted, cand.span)
			continue
		}

		keep := true
		var replace *spans.Span

		for _, existing := range overlaps {
			candSpec := spans.TypeSpecificity(cand.span.Type)
			existSpec := spans.TypeSpecificity(existing.Type)

			if existing.Contains(cand.span) && !cand.span.Contains(existing) {
				if candSpec > existSpec && cand.span.Confidence >= replaceConfidence {
					replace = existing
					break
				}
				keep = false
				break
			}
			// Containing an accepted span, or partially overlapping
			// one: the accepted span won its place in score order.
			keep = false
			break
		}

		if replace != nil {
			backend.Remove(replace)
			for i, s := range accepted {
				if s == replace {
					accepted = append(accepted[:i], accepted[i+1:]...)
					break
				}
			}
			backend.Insert(cand.span)
			accepted = append(accepted, cand.span)
			continue
		}
		if keep {
			backend.Insert(cand.span)
			accepted = append(accepted, cand.span)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		if accepted[i].Start != accepted[j].Start {
			return accepted[i].Start < accepted[j].Start
		}
		return accepted[i].End < accepted[j].End
	})
	return accepted
}

// MergeSpans flattens span lists from multiple detectors and
// arbitrates the combined set.
func MergeSpans(groups ...[]*spans.Span) []*spans.Span {
	var all []*spans.Span
	for _, group := range groups {
		all = append(all, group...)
	}
	return DropOverlappingSpans(all)
}

// IdenticalSpanGroups returns groups of two or more spans occupying
// identical positions, for category disambiguation. Groups and their
// members preserve input order.
func IdenticalSpanGroups(in []*spans.Span) [][]*spans.Span {
	type position struct{ start, end int }

	index := make(map[position]int)
	var groups [][]*spans.Span

	for _, s := range in {
		pos := position{s.Start, s.End}
		if i, ok := index[pos]; ok {
			groups[i] = append(groups[i], s)
			continue
		}
		index[pos] = len(groups)
		groups = append(groups, []*spans.Span{s})
	}

	var out [][]*spans.Span
	for _, g := range groups {
		if len(g) > 1 {
			out = append(out, g)
		}
	}
	return out
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
