// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package reasoner

import (
	"strings"

	"phi-arbiter/internal/spans"
)

// Facts are tuples derived from a document's span set. Rules are
// evaluated against facts, never against raw spans directly.

// DetectedFact records one span. The ID is the span's index in the
// input slice.
type DetectedFact struct {
	ID         int
	Type       spans.FilterType
	Confidence float64
	Start      int
	End        int
	Text       string
}

// NearbyFact records a symmetric pair of spans whose gap is within the
// proximity window. ID1 < ID2.
type NearbyFact struct {
	ID1      int
	ID2      int
	Distance int
}

// SameTextFact records a pair of spans whose normalized text is
// identical. ID1 < ID2.
type SameTextFact struct {
	ID1        int
	ID2        int
	Normalized string
}

// ContextFact records the text windows around one span.
type ContextFact struct {
	ID     int
	Before string
	After  string
}

// FactStore holds all derived facts for one document.
type FactStore struct {
	Detected []DetectedFact
	Nearby   []NearbyFact
	SameText []SameTextFact
	Context  []ContextFact
}

// BuildFacts derives the fact set from a span list and the document
// text. Pairwise passes are O(n^2); acceptable for per-document span
// counts in the low hundreds.
func BuildFacts(spanList []*spans.Span, docText string, proximityWindow, contextRadius int) *FactStore {
	store := &FactStore{
		Detected: make([]DetectedFact, 0, len(spanList)),
		Context:  make([]ContextFact, 0, len(spanList)),
	}

	normalized := make([]string, len(spanList))
	for i, s := range spanList {
		store.Detected = append(store.Detected, DetectedFact{
			ID:         i,
			Type:       s.Type,
			Confidence: s.Confidence,
			Start:      s.Start,
			End:        s.End,
			Text:       s.Text,
		})

		before, after := spans.ContextWindow(docText, s.Start, s.End, contextRadius)
		store.Context = append(store.Context, ContextFact{ID: i, Before: before, After: after})

		normalized[i] = NormalizeText(s.Text)
	}

	for i := 0; i < len(spanList); i++ {
		for j := i + 1; j < len(spanList); j++ {
			if gap := spanGap(spanList[i], spanList[j]); gap <= proximityWindow {
				store.Nearby = append(store.Nearby, NearbyFact{ID1: i, ID2: j, Distance: gap})
			}
			if normalized[i] != "" && normalized[i] == normalized[j] {
				store.SameText = append(store.SameText, SameTextFact{ID1: i, ID2: j, Normalized: normalized[i]})
			}
		}
	}

	return store
}

// NormalizeText lowercases and collapses all whitespace runs to single
// spaces, so a recurring surface string groups regardless of layout.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// spanGap is the character distance between two spans, 0 when they
// touch or overlap.
func spanGap(a, b *spans.Span) int {
	d1 := a.End - b.Start
	if d1 < 0 {
		d1 = -d1
	}
	d2 := b.End - a.Start
	if d2 < 0 {
		d2 = -d2
	}
	gap := d1
	if d2 < gap {
		gap = d2
	}
	if a.Overlaps(b) {
		return 0
	}
	return gap
}
