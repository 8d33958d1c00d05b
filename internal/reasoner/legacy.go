// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package reasoner

import (
	"phi-arbiter/internal/spans"
)

// LegacyReasoner is the pre-rule-table imperative pass, kept behind a
// feature flag for rollback. It hardcodes the two highest-value
// adjustments: the SSN/phone collision and same-text consistency.
// New category interactions belong in the Rule table, not here.
type LegacyReasoner struct {
	proximityWindow int
}

// NewLegacyReasoner constructs the legacy pass.
func NewLegacyReasoner() *LegacyReasoner {
	return &LegacyReasoner{proximityWindow: DefaultProximityWindow}
}

// Adjust applies the hardcoded adjustments in place.
func (l *LegacyReasoner) Adjust(spanList []*spans.Span, docText string) []*spans.Span {
	for i := 0; i < len(spanList); i++ {
		for j := i + 1; j < len(spanList); j++ {
			a, b := spanList[i], spanList[j]
			if spanGap(a, b) > l.proximityWindow {
				continue
			}

			ssnPhone := (a.Type == spans.TypeSSN && b.Type == spans.TypePhone) ||
				(a.Type == spans.TypePhone && b.Type == spans.TypeSSN)
			if ssnPhone {
				if a.Confidence <= b.Confidence {
					a.Confidence -= 0.9 * exclusivePenaltyFactor
				} else {
					b.Confidence -= 0.9 * exclusivePenaltyFactor
				}
			}

			if NormalizeText(a.Text) == NormalizeText(b.Text) && a.Type != b.Type {
				// Penalize the weaker of two conflicting typings of
				// the same surface string.
				if a.Confidence <= b.Confidence {
					a.Confidence -= consistencyPenalty
				} else {
					b.Confidence -= consistencyPenalty
				}
			}
		}
	}

	for _, s := range spanList {
		s.ClampConfidence()
	}
	return spanList
}

// NoopReasoner bypasses the reasoning stage entirely.
type NoopReasoner struct{}

// Adjust returns the spans unchanged.
func (NoopReasoner) Adjust(spanList []*spans.Span, docText string) []*spans.Span {
	return spanList
}
