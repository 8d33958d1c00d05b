// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package engine orchestrates the arbitration pipeline: candidate
// spans are deduplicated, scored, refined by the cross-span reasoner,
// and reduced to a non-overlapping accepted set.
package engine

import (
	"sync"

	"phi-arbiter/internal/config"
	"phi-arbiter/internal/interval"
	"phi-arbiter/internal/observability"
	"phi-arbiter/internal/reasoner"
	"phi-arbiter/internal/scoring"
	"phi-arbiter/internal/spans"
	"phi-arbiter/internal/voting"
)

// Document is one unit of work: full text plus candidate spans. The
// optional Signals slice is parallel to Spans; a span with a non-empty
// signal list is fused by the ensemble voter, all others go through
// the weighted scorer against their text window.
type Document struct {
	ID      string
	Text    string
	Spans   []*spans.Span
	Signals [][]voting.VoteSignal
}

// Engine runs the scoring and arbitration pipeline for one document at
// a time. The unit of concurrency is the document: shared weight and
// rule tables are read-only during processing, and each ProcessDocument
// call builds its own interval backend.
type Engine struct {
	scorer   *scoring.Scorer
	voter    *voting.EnsembleVoter
	adjuster reasoner.ConfidenceAdjuster
	backend  func() interval.Backend
	workers  int
	observer *observability.StandardObserver
}

// New constructs an engine from configuration. All collaborators are
// built here; there is no process-wide shared state.
func New(cfg *config.Config, observer *observability.StandardObserver) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if observer == nil {
		observer = observability.NewStandardObserver(observability.LevelOff, nil)
	}

	var adjuster reasoner.ConfidenceAdjuster
	switch cfg.Reasoner.Mode {
	case config.ReasonerOff:
		adjuster = reasoner.NoopReasoner{}
	case config.ReasonerLegacy:
		adjuster = reasoner.NewLegacyReasoner()
	default:
		r := reasoner.NewReasoner(cfg.Rules(), observer)
		r.SetProximityWindow(cfg.Reasoner.ProximityWindow)
		adjuster = r
	}

	backend := func() interval.Backend { return interval.NewTreeBackend() }
	if cfg.Arbitration.Backend == config.BackendLinear {
		backend = func() interval.Backend { return interval.NewLinearBackend() }
	}

	workers := cfg.Engine.Workers
	if workers < 1 {
		workers = 1
	}

	return &Engine{
		scorer:   scoring.NewScorer(cfg.Scoring.Weights, cfg.Scoring.Threshold),
		voter:    voting.NewEnsembleVoter(cfg.VotingConfig()),
		adjuster: adjuster,
		backend:  backend,
		workers:  workers,
		observer: observer,
	}
}

// NewDefault constructs an engine with built-in configuration.
func NewDefault() *Engine {
	return New(config.DefaultConfig(), nil)
}

// Scorer exposes the weighted scorer, e.g. for runtime weight swaps.
func (e *Engine) Scorer() *scoring.Scorer {
	return e.scorer
}

// Voter exposes the ensemble voter.
func (e *Engine) Voter() *voting.EnsembleVoter {
	return e.voter
}

// ProcessDocument runs the full pipeline for one document and returns
// the accepted, position-sorted span set. Candidate confidences are
// mutated in place; callers needing pre-adjustment values must
// snapshot first. Spans with invalid ranges are dropped at entry.
func (e *Engine) ProcessDocument(doc Document) []*spans.Span {
	done := e.observer.StartTiming("engine", "process_document", doc.ID)

	candidates, signals := collectCandidates(doc)

	candidates = e.scoreSpans(candidates, signals, doc.Text)
	candidates = e.adjuster.Adjust(candidates, doc.Text)

	for _, s := range candidates {
		s.ClampConfidence()
	}

	accepted := interval.DropOverlappingSpansWith(e.backend(), candidates)

	done(true, map[string]interface{}{
		"candidates": len(doc.Spans),
		"accepted":   len(accepted),
	})
	return accepted
}

// collectCandidates filters invalid spans and collapses exact
// (start, end, type) duplicates before scoring, keeping the
// higher-confidence instance and its signal list. Deduplicating up
// front keeps the reasoner's consistency pass from double-counting a
// span reported twice.
func collectCandidates(doc Document) ([]*spans.Span, [][]voting.VoteSignal) {
	type key struct {
		start, end int
		typ        spans.FilterType
	}

	candidates := make([]*spans.Span, 0, len(doc.Spans))
	signals := make([][]voting.VoteSignal, 0, len(doc.Spans))
	seen := make(map[key]int, len(doc.Spans))

	for i, s := range doc.Spans {
		if s == nil || !s.Valid() {
			continue
		}
		s.ClampConfidence()

		var sig []voting.VoteSignal
		if doc.Signals != nil && i < len(doc.Signals) {
			sig = doc.Signals[i]
		}

		k := key{s.Start, s.End, s.Type}
		if pos, dup := seen[k]; dup {
			if s.Confidence > candidates[pos].Confidence {
				candidates[pos] = s
				signals[pos] = sig
			}
			continue
		}
		seen[k] = len(candidates)
		candidates = append(candidates, s)
		signals = append(signals, sig)
	}
	return candidates, signals
}

// scoreSpans replaces each span's confidence with the fused score:
// the ensemble voter for spans carrying signals, the weighted scorer
// for the rest.
func (e *Engine) scoreSpans(candidates []*spans.Span, signals [][]voting.VoteSignal, text string) []*spans.Span {
	for i, s := range candidates {
		if len(signals[i]) > 0 {
			result := e.voter.Vote(signals[i])
			s.Confidence = result.CombinedScore
			if s.Pattern != "" {
				s.Pattern += "+voted"
			}
			continue
		}

		before, after := spans.ContextWindow(text, s.Start, s.End, spans.ContextRadius)
		result := e.scorer.Score(s, before+s.Text+after)
		s.Confidence = result.FinalScore
		if s.Pattern != "" {
			s.Pattern += "+scored"
		}
	}
	return candidates
}

// ProcessBatch fans documents out across a bounded worker pool.
// Results are indexed like the input. Per-span scoring within one
// document stays sequential; documents are the parallel unit.
func (e *Engine) ProcessBatch(docs []Document) [][]*spans.Span {
	results := make([][]*spans.Span, len(docs))
	if len(docs) == 0 {
		return results
	}

	workers := e.workers
	if workers > len(docs) {
		workers = len(docs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.ProcessDocument(docs[i])
			}
		}()
	}

	for i := range docs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
