// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package interval resolves geometric overlaps in a scored span set,
// producing a non-overlapping, position-sorted subset.
package interval

import (
	"fmt"

	"phi-arbiter/internal/spans"
)

// Backend is the overlap index contract. Two implementations exist:
// the reference augmented interval tree and a linear-scan fallback.
// Any substitute backend must produce the identical arbitration
// outcome; the contract test in this package asserts equivalence.
//
// Backends are not safe for concurrent mutation; use one instance per
// document-processing task. Read-only queries against a fully built
// backend may be shared.
type Backend interface {
	// Insert adds a span and returns its entry key.
	Insert(s *spans.Span) string
	// FindOverlaps returns all spans intersecting [start, end).
	FindOverlaps(start, end int) []*spans.Span
	// Remove deletes a span by identity key; reports whether it was
	// present.
	Remove(s *spans.Span) bool
	// Size returns the number of stored spans.
	Size() int
	// Clear removes all spans.
	Clear()
}

// entryKey identifies a span in a backend. The index never holds two
// entries with identical (start, end, type, text).
func entryKey(s *spans.Span) string {
	return fmt.Sprintf("%d-%d-%s-%s", s.Start, s.End, s.Type, s.Text)
}

// LinearBackend is the brute-force index: O(n) queries over a flat
// slice. Kept as the behavioral reference for backend contract tests
// and for tiny span sets where tree upkeep costs more than scanning.
type LinearBackend struct {
	entries map[string]*spans.Span
	order   []string
}

// NewLinearBackend creates an empty linear index.
func NewLinearBackend() *LinearBackend {
	return &LinearBackend{entries: make(map[string]*spans.Span)}
}

// Insert adds a span, replacing any entry with the same key.
func (b *LinearBackend) Insert(s *spans.Span) string {
	key := entryKey(s)
	if _, exists := b.entries[key]; !exists {
		b.order = append(b.order, key)
	}
	b.entries[key] = s
	return key
}

// FindOverlaps scans all entries in insertion order.
func (b *LinearBackend) FindOverlaps(start, end int) []*spans.Span {
	var out []*spans.Span
	for _, key := range b.order {
		s, ok := b.entries[key]
		if !ok {
			continue
		}
		if s.Start < end && s.End > start {
			out = append(out, s)
		}
	}
	return out
}

// Remove deletes a span by key.
func (b *LinearBackend) Remove(s *spans.Span) bool {
	key := entryKey(s)
	if _, ok := b.entries[key]; !ok {
		return false
	}
	delete(b.entries, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return true
}

// Size returns the entry count.
func (b *LinearBackend) Size() int {
	return len(b.entries)
}

// Clear removes all entries.
func (b *LinearBackend) Clear() {
	b.entries = make(map[string]*spans.Span)
	b.order = nil
}
