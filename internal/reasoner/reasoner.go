// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package reasoner adjusts already-scored span confidences using
// declarative cross-span rules: facts are derived as tuples from the
// span set, rules are pure implications over fact joins, and the
// resulting deltas are commutative sums applied once per span.
package reasoner

import (
	"fmt"

	"github.com/google/uuid"

	"phi-arbiter/internal/observability"
	"phi-arbiter/internal/spans"
)

// Document-consistency adjustments: spans whose normalized text matches
// the majority category of their group are boosted; minority-typed
// members take half the conflict penalty.
const (
	consistencyBoost   = 0.10
	consistencyPenalty = 0.125
)

// DefaultProximityWindow is the maximum character gap for a Nearby fact.
const DefaultProximityWindow = 200

// RuleFiring records one rule application for audit. Provenance does
// not affect numeric outcomes: deltas are order-independent sums.
type RuleFiring struct {
	TraceID string  `json:"trace_id"`
	Rule    string  `json:"rule"`
	SpanID  int     `json:"span_id"`
	Delta   float64 `json:"delta"`
	Detail  string  `json:"detail"`
}

// ConfidenceAdjuster is the cross-span refinement stage of the
// pipeline. Implementations must treat failure as a no-op pass.
type ConfidenceAdjuster interface {
	Adjust(spanList []*spans.Span, docText string) []*spans.Span
}

// Reasoner is the declarative rule engine. Not incrementally updatable:
// mutating the span set requires rebuilding all facts.
type Reasoner struct {
	rules           []Rule
	proximityWindow int
	contextRadius   int
	observer        *observability.StandardObserver

	lastTrace []RuleFiring
}

// NewReasoner constructs a reasoner over the given rule table. A nil
// observer disables logging.
func NewReasoner(rules []Rule, observer *observability.StandardObserver) *Reasoner {
	if observer == nil {
		observer = observability.NewStandardObserver(observability.LevelOff, nil)
	}
	return &Reasoner{
		rules:           rules,
		proximityWindow: DefaultProximityWindow,
		contextRadius:   spans.ContextRadius,
		observer:        observer,
	}
}

// NewDefaultReasoner constructs a reasoner with the built-in rule table.
func NewDefaultReasoner() *Reasoner {
	return NewReasoner(DefaultRules(), nil)
}

// AddRule appends a rule at runtime. Rules are data; no engine change
// is needed for new PHI categories.
func (r *Reasoner) AddRule(rule Rule) {
	r.rules = append(r.rules, rule)
}

// SetProximityWindow overrides the Nearby gap threshold.
func (r *Reasoner) SetProximityWindow(window int) {
	if window > 0 {
		r.proximityWindow = window
	}
}

// Trace returns the rule firings from the most recent Adjust call.
func (r *Reasoner) Trace() []RuleFiring {
	return r.lastTrace
}

// Adjust applies the rule pass and the document-consistency pass, then
// sums and clamps all deltas per span. Confidence is mutated in place;
// the returned slice is the input slice.
//
// This stage is a refinement, not a required correctness step: if rule
// evaluation panics, the pass restores all confidences and returns the
// spans unchanged.
func (r *Reasoner) Adjust(spanList []*spans.Span, docText string) (out []*spans.Span) {
	if len(spanList) == 0 {
		return spanList
	}

	snapshot := make([]float64, len(spanList))
	for i, s := range spanList {
		s.ClampConfidence()
		snapshot[i] = s.Confidence
	}

	defer func() {
		if p := recover(); p != nil {
			for i, s := range spanList {
				s.Confidence = snapshot[i]
			}
			r.observer.LogOperation(observability.OperationRecord{
				Component: "reasoner",
				Operation: "adjust",
				Success:   false,
				Error:     fmt.Sprintf("rule evaluation failed, pass skipped: %v", p),
			})
			out = spanList
		}
	}()

	facts := BuildFacts(spanList, docText, r.proximityWindow, r.contextRadius)

	deltas := make([]float64, len(spanList))
	trace := make([]RuleFiring, 0)
	traceID := uuid.NewString()

	r.applyRules(facts, deltas, &trace, traceID)
	r.applyConsistency(facts, deltas, &trace, traceID)

	for i, s := range spanList {
		s.Confidence = spans.Clamp01(s.Confidence + deltas[i])
	}

	r.lastTrace = trace
	r.observer.LogOperation(observability.OperationRecord{
		Component: "reasoner",
		Operation: "adjust",
		Success:   true,
		Metadata: map[string]interface{}{
			"spans":   len(spanList),
			"nearby":  len(facts.Nearby),
			"firings": len(trace),
		},
	})
	return spanList
}

// applyRules evaluates every rule against every Nearby pair.
func (r *Reasoner) applyRules(facts *FactStore, deltas []float64, trace *[]RuleFiring, traceID string) {
	for _, pair := range facts.Nearby {
		f1 := facts.Detected[pair.ID1]
		f2 := facts.Detected[pair.ID2]

		for i := range r.rules {
			rule := &r.rules[i]
			if !rule.Matches(f1.Type, f2.Type) {
				continue
			}
			if rule.ContextPattern != nil {
				combined := facts.Context[pair.ID1].Before + " " + facts.Context[pair.ID1].After +
					" " + facts.Context[pair.ID2].Before + " " + facts.Context[pair.ID2].After
				if !rule.ContextPattern.MatchString(combined) {
					continue
				}
			}

			switch rule.Relationship {
			case Exclusive:
				loser := weakerSpan(f1, f2)
				delta := -rule.Strength * exclusivePenaltyFactor
				deltas[loser] += delta
				*trace = append(*trace, RuleFiring{
					TraceID: traceID, Rule: rule.Name, SpanID: loser, Delta: delta,
					Detail: fmt.Sprintf("conflict with span %d at distance %d", otherSpan(loser, pair), pair.Distance),
				})
			case Supportive:
				delta := rule.Strength * supportiveBoostFactor
				deltas[pair.ID1] += delta
				deltas[pair.ID2] += delta
				*trace = append(*trace,
					RuleFiring{TraceID: traceID, Rule: rule.Name, SpanID: pair.ID1, Delta: delta,
						Detail: fmt.Sprintf("supported by span %d", pair.ID2)},
					RuleFiring{TraceID: traceID, Rule: rule.Name, SpanID: pair.ID2, Delta: delta,
						Detail: fmt.Sprintf("supported by span %d", pair.ID1)},
				)
			default:
				panic(fmt.Sprintf("reasoner: unknown relationship %q in rule %q", rule.Relationship, rule.Name))
			}
		}
	}
}

// applyConsistency discourages a recurring surface string from being
// inconsistently typed across the document.
func (r *Reasoner) applyConsistency(facts *FactStore, deltas []float64, trace *[]RuleFiring, traceID string) {
	groups := make(map[string][]int)
	for _, f := range facts.Detected {
		norm := NormalizeText(f.Text)
		if norm == "" {
			continue
		}
		groups[norm] = append(groups[norm], f.ID)
	}

	for norm, members := range groups {
		if len(members) < 2 {
			continue
		}

		counts := make(map[spans.FilterType]int)
		for _, id := range members {
			counts[facts.Detected[id].Type]++
		}

		majority := majorityType(counts)

		for _, id := range members {
			if facts.Detected[id].Type == majority {
				deltas[id] += consistencyBoost
				*trace = append(*trace, RuleFiring{
					TraceID: traceID, Rule: "TEXT_CONSISTENCY", SpanID: id, Delta: consistencyBoost,
					Detail: fmt.Sprintf("matches majority type %s for %q", majority, norm),
				})
			} else {
				deltas[id] -= consistencyPenalty
				*trace = append(*trace, RuleFiring{
					TraceID: traceID, Rule: "TEXT_CONSISTENCY", SpanID: id, Delta: -consistencyPenalty,
					Detail: fmt.Sprintf("conflicts with majority type %s for %q", majority, norm),
				})
			}
		}
	}
}

// weakerSpan picks the lower-confidence member of an exclusive pair.
// Ties go to the later-starting span so the outcome is deterministic.
func weakerSpan(f1, f2 DetectedFact) int {
	switch {
	case f1.Confidence < f2.Confidence:
		return f1.ID
	case f2.Confidence < f1.Confidence:
		return f2.ID
	case f1.Start >= f2.Start:
		return f1.ID
	default:
		return f2.ID
	}
}

func otherSpan(id int, pair NearbyFact) int {
	if pair.ID1 == id {
		return pair.ID2
	}
	return pair.ID1
}

// majorityType returns the most frequent category; ties break to the
// lexicographically smallest name to keep the pass deterministic.
func majorityType(counts map[spans.FilterType]int) spans.FilterType {
	var best spans.FilterType
	bestCount := -1
	for t, c := range counts {
		if c > bestCount || (c == bestCount && t < best) {
			best = t
			bestCount = c
		}
	}
	return best
}
