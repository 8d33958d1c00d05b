// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scoring computes a weighted PHI confidence for a raw span
// plus its surrounding text window, combining pattern-tier weights,
// context bonuses, and medical-vocabulary whitelist penalties.
package scoring

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"phi-arbiter/internal/spans"
)

// Weights is the flat table of named scoring weights. Pattern weights
// set the base score, context bonuses are additive, and whitelist
// penalties are negative.
type Weights struct {
	// Pattern-tier weights
	LastFirstFormat      float64 `yaml:"last_first_format"`
	TitledName           float64 `yaml:"titled_name"`
	PatientLabel         float64 `yaml:"patient_label"`
	LabeledName          float64 `yaml:"labeled_name"`
	FamilyRelation       float64 `yaml:"family_relation"`
	GeneralFullName      float64 `yaml:"general_full_name"`
	HighPrecisionPattern float64 `yaml:"high_precision_pattern"`

	// Context bonuses
	TitleContextBonus  float64 `yaml:"title_context_bonus"`
	FamilyContextBonus float64 `yaml:"family_context_bonus"`
	PHILabelBonus      float64 `yaml:"phi_label_bonus"`
	ClinicalRoleBonus  float64 `yaml:"clinical_role_bonus"`

	// Whitelist penalties (negative)
	DiseaseEponymPenalty float64 `yaml:"disease_eponym_penalty"`
	DiseaseNamePenalty   float64 `yaml:"disease_name_penalty"`
	MedicationPenalty    float64 `yaml:"medication_penalty"`
	ProcedurePenalty     float64 `yaml:"procedure_penalty"`
	AnatomicalPenalty    float64 `yaml:"anatomical_penalty"`
	SectionHeaderPenalty float64 `yaml:"section_header_penalty"`
	OrganizationPenalty  float64 `yaml:"organization_penalty"`
}

// DefaultWeights returns the built-in weight set. Externally optimized
// sets may replace it at runtime via SetWeights.
func DefaultWeights() Weights {
	return Weights{
		LastFirstFormat:      0.95,
		TitledName:           0.92,
		PatientLabel:         0.90,
		LabeledName:          0.91,
		FamilyRelation:       0.90,
		GeneralFullName:      0.70,
		HighPrecisionPattern: 0.95,

		TitleContextBonus:  0.25,
		FamilyContextBonus: 0.30,
		PHILabelBonus:      0.20,
		ClinicalRoleBonus:  0.25,

		DiseaseEponymPenalty: -0.85,
		DiseaseNamePenalty:   -0.80,
		MedicationPenalty:    -0.75,
		ProcedurePenalty:     -0.70,
		AnatomicalPenalty:    -0.65,
		SectionHeaderPenalty: -0.90,
		OrganizationPenalty:  -0.60,
	}
}

// DefaultThreshold is the decision threshold; recommendation bands are
// threshold +/- 0.15.
const DefaultThreshold = 0.50

// Recommendation values for a scored span.
const (
	RecommendPHI       = "PHI"
	RecommendNotPHI    = "NOT_PHI"
	RecommendUncertain = "UNCERTAIN"
)

// BreakdownEntry records one contributing term, required for audit and
// for debugging false positives/negatives.
type BreakdownEntry struct {
	Source string  `json:"source"`
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

// Result is the full scoring outcome for one span.
type Result struct {
	FinalScore       float64          `json:"final_score"`
	BaseScore        float64          `json:"base_score"`
	ContextBonus     float64          `json:"context_bonus"`
	WhitelistPenalty float64          `json:"whitelist_penalty"`
	Recommendation   string           `json:"recommendation"`
	Breakdown        []BreakdownEntry `json:"breakdown"`
}

// contextResult is the cached outcome of the context-bonus pass for one
// window text.
type contextResult struct {
	bonus   float64
	entries []BreakdownEntry
}

// contextCacheSize bounds the window-bonus cache. Clinical documents
// repeat headers and label lines heavily, so identical windows recur.
const contextCacheSize = 2048

// Scorer computes weighted PHI confidence scores. The weight tables
// are read-only during batch scoring, so a single Scorer is safe to
// share across a read-only batch; SetWeights/SetThreshold must not be
// called concurrently with scoring.
type Scorer struct {
	weights   Weights
	threshold float64

	contextCache *lru.Cache[string, contextResult]
}

// NewScorer constructs a scorer with the given weights and threshold.
func NewScorer(weights Weights, threshold float64) *Scorer {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	cache, _ := lru.New[string, contextResult](contextCacheSize)
	return &Scorer{
		weights:      weights,
		threshold:    threshold,
		contextCache: cache,
	}
}

// NewDefaultScorer constructs a scorer with built-in weights.
func NewDefaultScorer() *Scorer {
	return NewScorer(DefaultWeights(), DefaultThreshold)
}

// Score evaluates one span against its surrounding context window.
func (s *Scorer) Score(span *spans.Span, context string) Result {
	var breakdown []BreakdownEntry

	base := s.baseScore(span, &breakdown)

	ctx := s.contextBonus(context)
	breakdown = append(breakdown, ctx.entries...)

	penalty := s.whitelistPenalty(span, &breakdown)

	final := spans.Clamp01(base + ctx.bonus + penalty)

	return Result{
		FinalScore:       final,
		BaseScore:        base,
		ContextBonus:     ctx.bonus,
		WhitelistPenalty: penalty,
		Recommendation:   s.recommend(final),
		Breakdown:        breakdown,
	}
}

// ScoreBatch evaluates spans against windows extracted from the full
// document text. Spans are independent; the batch is safe to fan out
// as long as the weight tables stay read-only.
func (s *Scorer) ScoreBatch(batch []*spans.Span, fullText string) []Result {
	results := make([]Result, len(batch))
	for i, span := range batch {
		before, after := spans.ContextWindow(fullText, span.Start, span.End, spans.ContextRadius)
		results[i] = s.Score(span, before+span.Text+after)
	}
	return results
}

func (s *Scorer) recommend(score float64) string {
	switch {
	case score >= s.threshold+0.15:
		return RecommendPHI
	case score < s.threshold-0.15:
		return RecommendNotPHI
	default:
		return RecommendUncertain
	}
}

// baseScore assigns the pattern-tier weight. High-precision structured
// categories get a fixed weight; NAME spans are tiered by the pattern
// id that produced them, in fixed priority order; everything else keeps
// its prior detection confidence.
func (s *Scorer) baseScore(span *spans.Span, breakdown *[]BreakdownEntry) float64 {
	filterType := strings.ToUpper(string(span.Type))

	if highPrecisionTypes[filterType] {
		value := s.weights.HighPrecisionPattern
		*breakdown = append(*breakdown, BreakdownEntry{
			Source: "pattern",
			Value:  value,
			Reason: fmt.Sprintf("High-precision %s pattern", filterType),
		})
		return value
	}

	if filterType == "NAME" {
		pattern := strings.ToLower(span.Pattern)

		switch {
		case strings.Contains(pattern, "last") && strings.Contains(pattern, "first"):
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "pattern", Value: s.weights.LastFirstFormat,
				Reason: "Last, First name format",
			})
			return s.weights.LastFirstFormat
		case strings.Contains(pattern, "title") || strings.Contains(pattern, "dr") || strings.Contains(pattern, "mr"):
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "pattern", Value: s.weights.TitledName,
				Reason: "Titled name pattern",
			})
			return s.weights.TitledName
		case strings.Contains(pattern, "patient"):
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "pattern", Value: s.weights.PatientLabel,
				Reason: "Patient label pattern",
			})
			return s.weights.PatientLabel
		case strings.Contains(pattern, "family") || strings.Contains(pattern, "relation"):
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "pattern", Value: s.weights.FamilyRelation,
				Reason: "Family relation pattern",
			})
			return s.weights.FamilyRelation
		default:
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "pattern", Value: s.weights.GeneralFullName,
				Reason: "General full name pattern",
			})
			return s.weights.GeneralFullName
		}
	}

	*breakdown = append(*breakdown, BreakdownEntry{
		Source: "confidence",
		Value:  span.Confidence,
		Reason: "Original detection confidence",
	})
	return span.Confidence
}

// contextBonus sums the independent context-class bonuses for a window.
// Results are memoized per window text.
func (s *Scorer) contextBonus(context string) contextResult {
	if cached, ok := s.contextCache.Get(context); ok {
		return cached
	}

	var result contextResult

	if titleContextRe.MatchString(context) {
		result.bonus += s.weights.TitleContextBonus
		result.entries = append(result.entries, BreakdownEntry{
			Source: "context", Value: s.weights.TitleContextBonus,
			Reason: "Title prefix detected (Mr/Mrs/Dr)",
		})
	}
	if familyTermsRe.MatchString(context) {
		result.bonus += s.weights.FamilyContextBonus
		result.entries = append(result.entries, BreakdownEntry{
			Source: "context", Value: s.weights.FamilyContextBonus,
			Reason: "Family relationship context",
		})
	}
	if phiLabelsRe.MatchString(context) {
		result.bonus += s.weights.PHILabelBonus
		result.entries = append(result.entries, BreakdownEntry{
			Source: "context", Value: s.weights.PHILabelBonus,
			Reason: "PHI label context (Name:, Patient:)",
		})
	}
	if clinicalRolesRe.MatchString(context) {
		result.bonus += s.weights.ClinicalRoleBonus
		result.entries = append(result.entries, BreakdownEntry{
			Source: "context", Value: s.weights.ClinicalRoleBonus,
			Reason: "Clinical role context (Performed by:)",
		})
	}

	s.contextCache.Add(context, result)
	return result
}

// whitelistPenalty applies at most one medical-vocabulary penalty to a
// NAME span, in strict priority order. A text that is both a disease
// eponym and contains a medication substring is penalized once, at the
// eponym weight.
func (s *Scorer) whitelistPenalty(span *spans.Span, breakdown *[]BreakdownEntry) float64 {
	if strings.ToUpper(string(span.Type)) != "NAME" {
		return 0
	}

	lower := strings.ToLower(span.Text)

	if diseaseEponyms[lower] {
		*breakdown = append(*breakdown, BreakdownEntry{
			Source: "whitelist", Value: s.weights.DiseaseEponymPenalty,
			Reason: fmt.Sprintf("Disease eponym: %s", span.Text),
		})
		return s.weights.DiseaseEponymPenalty
	}
	for _, disease := range diseaseNames {
		if strings.Contains(lower, disease) {
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "whitelist", Value: s.weights.DiseaseNamePenalty,
				Reason: fmt.Sprintf("Disease name: %s", disease),
			})
			return s.weights.DiseaseNamePenalty
		}
	}
	for _, med := range medications {
		if strings.Contains(lower, med) {
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "whitelist", Value: s.weights.MedicationPenalty,
				Reason: fmt.Sprintf("Medication: %s", med),
			})
			return s.weights.MedicationPenalty
		}
	}
	for _, proc := range procedures {
		if strings.Contains(lower, proc) {
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "whitelist", Value: s.weights.ProcedurePenalty,
				Reason: fmt.Sprintf("Procedure: %s", proc),
			})
			return s.weights.ProcedurePenalty
		}
	}
	if anatomicalTerms[lower] {
		*breakdown = append(*breakdown, BreakdownEntry{
			Source: "whitelist", Value: s.weights.AnatomicalPenalty,
			Reason: fmt.Sprintf("Anatomical term: %s", span.Text),
		})
		return s.weights.AnatomicalPenalty
	}
	for _, header := range sectionHeaders {
		if strings.Contains(lower, header) {
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "whitelist", Value: s.weights.SectionHeaderPenalty,
				Reason: fmt.Sprintf("Section header: %s", header),
			})
			return s.weights.SectionHeaderPenalty
		}
	}
	for _, org := range organizationTerms {
		if strings.Contains(lower, org) {
			*breakdown = append(*breakdown, BreakdownEntry{
				Source: "whitelist", Value: s.weights.OrganizationPenalty,
				Reason: fmt.Sprintf("Organization term: %s", org),
			})
			return s.weights.OrganizationPenalty
		}
	}

	return 0
}

// Weights returns the current weight table.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// SetWeights swaps in an externally optimized weight set. The context
// cache is purged because cached bonuses embed the old weights.
func (s *Scorer) SetWeights(weights Weights) {
	s.weights = weights
	s.contextCache.Purge()
}

// SetThreshold updates the decision threshold.
func (s *Scorer) SetThreshold(threshold float64) {
	s.threshold = threshold
}
