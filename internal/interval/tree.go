// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package interval

import (
	"phi-arbiter/internal/spans"
)

// TreeBackend is an augmented interval tree keyed by (start, end).
// Insert and Remove are O(log n) on balanced input; FindOverlaps is
// O(log n + k). Nodes carry the max end of their subtree so whole
// subtrees can be pruned during queries.
type TreeBackend struct {
	root    *treeNode
	entries map[string]*spans.Span
}

type treeNode struct {
	start  int
	end    int
	maxEnd int
	keys   []string
	left   *treeNode
	right  *treeNode
}

// NewTreeBackend creates an empty interval tree.
func NewTreeBackend() *TreeBackend {
	return &TreeBackend{entries: make(map[string]*spans.Span)}
}

// Insert adds a span to the tree. Exact duplicates (same key) replace
// the stored pointer without growing the tree.
func (t *TreeBackend) Insert(s *spans.Span) string {
	key := entryKey(s)
	if _, exists := t.entries[key]; exists {
		t.entries[key] = s
		return key
	}
	t.entries[key] = s

	if t.root == nil {
		t.root = newTreeNode(s.Start, s.End, key)
		return key
	}
	t.root.insert(s.Start, s.End, key)
	return key
}

// FindOverlaps returns all stored spans intersecting [start, end).
func (t *TreeBackend) FindOverlaps(start, end int) []*spans.Span {
	if t.root == nil {
		return nil
	}
	var keys []string
	t.root.findOverlaps(start, end, &keys)

	out := make([]*spans.Span, 0, len(keys))
	for _, key := range keys {
		if s, ok := t.entries[key]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Remove deletes a span by its identity key.
func (t *TreeBackend) Remove(s *spans.Span) bool {
	key := entryKey(s)
	if _, ok := t.entries[key]; !ok {
		return false
	}
	delete(t.entries, key)
	if t.root != nil {
		t.root.remove(s.Start, s.End, key)
	}
	return true
}

// Size returns the number of stored spans.
func (t *TreeBackend) Size() int {
	return len(t.entries)
}

// Clear drops the whole tree.
func (t *TreeBackend) Clear() {
	t.root = nil
	t.entries = make(map[string]*spans.Span)
}

func newTreeNode(start, end int, key string) *treeNode {
	return &treeNode{start: start, end: end, maxEnd: end, keys: []string{key}}
}

func (n *treeNode) updateMax() {
	n.maxEnd = n.end
	if n.left != nil && n.left.maxEnd > n.maxEnd {
		n.maxEnd = n.left.maxEnd
	}
	if n.right != nil && n.right.maxEnd > n.maxEnd {
		n.maxEnd = n.right.maxEnd
	}
}

func (n *treeNode) insert(start, end int, key string) {
	if start == n.start && end == n.end {
		n.keys = append(n.keys, key)
		return
	}

	if start < n.start || (start == n.start && end < n.end) {
		if n.left != nil {
			n.left.insert(start, end, key)
		} else {
			n.left = newTreeNode(start, end, key)
		}
	} else {
		if n.right != nil {
			n.right.insert(start, end, key)
		} else {
			n.right = newTreeNode(start, end, key)
		}
	}

	n.updateMax()
}

func (n *treeNode) findOverlaps(start, end int, keys *[]string) {
	if n.start < end && n.end > start {
		*keys = append(*keys, n.keys...)
	}

	// Left subtree can only match if something in it reaches past the
	// query start.
	if n.left != nil && n.left.maxEnd > start {
		n.left.findOverlaps(start, end, keys)
	}

	// Right subtree holds intervals starting at or after this node.
	if n.right != nil && end > n.start {
		n.right.findOverlaps(start, end, keys)
	}
}

func (n *treeNode) remove(start, end int, key string) bool {
	if start == n.start && end == n.end {
		before := len(n.keys)
		kept := n.keys[:0]
		for _, k := range n.keys {
			if k != key {
				kept = append(kept, k)
			}
		}
		n.keys = kept
		return len(n.keys) < before
	}

	var removed bool
	if start < n.start || (start == n.start && end < n.end) {
		if n.left != nil {
			removed = n.left.remove(start, end, key)
		}
	} else {
		if n.right != nil {
			removed = n.right.remove(start, end, key)
		}
	}

	if removed {
		n.updateMax()
	}
	return removed
}
