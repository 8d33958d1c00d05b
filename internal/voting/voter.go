// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package voting fuses independent detection signals for a span into a
// single combined confidence and a categorical recommendation.
package voting

import (
	"fmt"
	"math"
)

// SignalSource identifies which detection layer produced a signal.
type SignalSource string

const (
	SourcePattern       SignalSource = "PATTERN"
	SourceDictionary    SignalSource = "DICTIONARY"
	SourceContext       SignalSource = "CONTEXT"
	SourceStructure     SignalSource = "STRUCTURE"
	SourceLabel         SignalSource = "LABEL"
	SourceChaosAdjusted SignalSource = "CHAOS_ADJUSTED"
)

// VoteSignal is one independent piece of evidence about a span.
// Ephemeral: produced per evaluation, never persisted.
type VoteSignal struct {
	Source     SignalSource `json:"source"`
	Weight     float64      `json:"weight"`     // signal-level weight in [0,1]
	Confidence float64      `json:"confidence"` // [0,1]
	Reason     string       `json:"reason"`
}

// Recommendation is the categorical voting outcome.
type Recommendation string

const (
	RecommendRedact    Recommendation = "REDACT"
	RecommendSkip      Recommendation = "SKIP"
	RecommendUncertain Recommendation = "UNCERTAIN"
)

// VotingConfig holds the per-source weight table and decision
// thresholds. Immutable per voter instance.
type VotingConfig struct {
	SignalWeights    map[SignalSource]float64
	RedactThreshold  float64
	SkipThreshold    float64
	MinimumAgreement int
	UseBayesian      bool
	PHIPrior         float64
}

// DefaultVotingConfig returns the built-in weight table and thresholds.
func DefaultVotingConfig() VotingConfig {
	return VotingConfig{
		SignalWeights: map[SignalSource]float64{
			SourcePattern:       0.30,
			SourceDictionary:    0.25,
			SourceContext:       0.20,
			SourceStructure:     0.10,
			SourceLabel:         0.10,
			SourceChaosAdjusted: 0.05,
		},
		RedactThreshold:  0.65,
		SkipThreshold:    0.35,
		MinimumAgreement: 2,
		UseBayesian:      false,
		PHIPrior:         0.15,
	}
}

// VoteResult is the fused outcome for one span's signal list.
type VoteResult struct {
	CombinedScore  float64
	Recommendation Recommendation
	DominantSignal *VoteSignal
	Explanation    string
}

// EnsembleVoter combines signals using either a weighted geometric mean
// (default) or Bayesian log-odds fusion. Pure: no state beyond config.
type EnsembleVoter struct {
	config VotingConfig
}

// NewEnsembleVoter constructs a voter with the given config. Zero or
// missing source weights fall back to the defaults.
func NewEnsembleVoter(config VotingConfig) *EnsembleVoter {
	if config.SignalWeights == nil {
		config.SignalWeights = DefaultVotingConfig().SignalWeights
	}
	if config.RedactThreshold == 0 && config.SkipThreshold == 0 {
		def := DefaultVotingConfig()
		config.RedactThreshold = def.RedactThreshold
		config.SkipThreshold = def.SkipThreshold
	}
	if config.PHIPrior == 0 {
		config.PHIPrior = DefaultVotingConfig().PHIPrior
	}
	return &EnsembleVoter{config: config}
}

// lnGuard keeps ln() and logit() away from their singularities.
const lnGuard = 1e-10

// Vote fuses the signal list into a combined score and recommendation.
// An empty list yields score 0 and SKIP without error.
func (v *EnsembleVoter) Vote(signals []VoteSignal) VoteResult {
	if len(signals) == 0 {
		return VoteResult{
			CombinedScore:  0,
			Recommendation: RecommendSkip,
			Explanation:    "no signals",
		}
	}

	var base float64
	if v.config.UseBayesian {
		base = v.bayesianScore(signals)
	} else {
		base = v.geometricScore(signals)
	}

	score := clamp01(base * v.agreementMultiplier(signals))

	dominant := v.dominantSignal(signals)

	return VoteResult{
		CombinedScore:  score,
		Recommendation: v.recommend(score),
		DominantSignal: dominant,
		Explanation:    v.explain(score, dominant, len(signals)),
	}
}

// geometricScore computes the weighted geometric mean of signal
// confidences. A single near-zero confidence drags the combined score
// down hard, which is the desired bias for a redaction system.
func (v *EnsembleVoter) geometricScore(signals []VoteSignal) float64 {
	var logSum, weightSum float64
	for i := range signals {
		w := v.effectiveWeight(&signals[i])
		if w <= 0 {
			continue
		}
		c := clamp01(signals[i].Confidence)
		if c < lnGuard {
			c = lnGuard
		}
		logSum += w * math.Log(c)
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return math.Exp(logSum / weightSum)
}

// bayesianScore fuses signals in log-odds space, anchored on the PHI
// prior.
func (v *EnsembleVoter) bayesianScore(signals []VoteSignal) float64 {
	var logitSum, weightSum float64
	for i := range signals {
		w := v.effectiveWeight(&signals[i])
		if w <= 0 {
			continue
		}
		logitSum += w * logit(signals[i].Confidence)
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sigmoid(logitSum/weightSum + logit(v.config.PHIPrior))
}

// agreementMultiplier rewards signal consensus and punishes an even
// split, using normalized binary entropy over the positive/negative
// partition. No adjustment is possible with a single signal.
func (v *EnsembleVoter) agreementMultiplier(signals []VoteSignal) float64 {
	total := len(signals)
	if total <= 1 {
		return 1.0
	}

	positives := 0
	for i := range signals {
		if signals[i].Confidence > 0.5 {
			positives++
		}
	}

	entropy := binaryEntropy(positives, total)
	multiplier := 1.15 - 0.30*entropy
	if multiplier < 0.85 {
		multiplier = 0.85
	}
	if positives >= v.config.MinimumAgreement && v.config.MinimumAgreement > 0 {
		multiplier += 0.05
	}
	if multiplier > 1.20 {
		multiplier = 1.20
	}
	return multiplier
}

// effectiveWeight combines the config's source weight with the
// signal's own weight.
func (v *EnsembleVoter) effectiveWeight(s *VoteSignal) float64 {
	return v.config.SignalWeights[s.Source] * clamp01(s.Weight)
}

func (v *EnsembleVoter) recommend(score float64) Recommendation {
	switch {
	case score >= v.config.RedactThreshold:
		return RecommendRedact
	case score <= v.config.SkipThreshold:
		return RecommendSkip
	default:
		return RecommendUncertain
	}
}

// dominantSignal returns the signal with the largest individual
// weighted contribution. Used for the explanation only, never for the
// score itself.
func (v *EnsembleVoter) dominantSignal(signals []VoteSignal) *VoteSignal {
	best := -1
	bestValue := -1.0
	for i := range signals {
		contribution := clamp01(signals[i].Weight) * clamp01(signals[i].Confidence) * v.config.SignalWeights[signals[i].Source]
		if contribution > bestValue {
			bestValue = contribution
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	return &signals[best]
}

func (v *EnsembleVoter) explain(score float64, dominant *VoteSignal, count int) string {
	if dominant == nil {
		return fmt.Sprintf("combined %.3f from %d signals", score, count)
	}
	return fmt.Sprintf("combined %.3f from %d signals, led by %s (%s)",
		score, count, dominant.Source, dominant.Reason)
}

// binaryEntropy returns the normalized Shannon entropy of the
// positive/negative split, 0 when all signals agree, 1 at an even split.
func binaryEntropy(positives, total int) float64 {
	if total <= 1 {
		return 0
	}
	p := float64(positives) / float64(total)
	if p <= 0 || p >= 1 {
		return 0
	}
	return -(p*math.Log2(p) + (1-p)*math.Log2(1-p))
}

// logit maps a probability to log-odds, with p clamped away from 0 and
// 1 so the result stays finite.
func logit(p float64) float64 {
	if p < lnGuard {
		p = lnGuard
	}
	if p > 1-lnGuard {
		p = 1 - lnGuard
	}
	return math.Log(p / (1 - p))
}

// sigmoid is the numerically stable logistic function: the exponential
// argument is kept non-positive regardless of sign.
func sigmoid(x float64) float64 {
	if x >= 0 {
		z := math.Exp(-x)
		return 1 / (1 + z)
	}
	z := math.Exp(x)
	return z / (1 + z)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
