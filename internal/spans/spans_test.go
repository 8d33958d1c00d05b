// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package spans

import (
	"testing"
)

func TestSpanValid(t *testing.T) {
	tests := []struct {
		name string
		span Span
		want bool
	}{
		{"normal range", Span{Start: 0, End: 5}, true},
		{"single char", Span{Start: 3, End: 4}, true},
		{"empty range", Span{Start: 5, End: 5}, false},
		{"inverted range", Span{Start: 10, End: 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.span.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampConfidence(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range", 0.5, 0.5},
		{"negative", -0.3, 0},
		{"above one", 1.7, 1},
		{"zero", 0, 0},
		{"one", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Span{Start: 0, End: 1, Confidence: tt.in}
			s.ClampConfidence()
			if s.Confidence != tt.want {
				t.Errorf("ClampConfidence() left %v, want %v", s.Confidence, tt.want)
			}
		})
	}
}

func TestOverlapsAndContains(t *testing.T) {
	a := &Span{Start: 10, End: 20}

	tests := []struct {
		name         string
		other        *Span
		wantOverlap  bool
		wantContains bool
	}{
		{"identical", &Span{Start: 10, End: 20}, true, true},
		{"inside", &Span{Start: 12, End: 18}, true, true},
		{"partial left", &Span{Start: 5, End: 15}, true, false},
		{"partial right", &Span{Start: 15, End: 25}, true, false},
		{"touching left", &Span{Start: 0, End: 10}, false, false},
		{"touching right", &Span{Start: 20, End: 30}, false, false},
		{"disjoint", &Span{Start: 30, End: 40}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.other); got != tt.wantOverlap {
				t.Errorf("Overlaps() = %v, want %v", got, tt.wantOverlap)
			}
			if got := a.Contains(tt.other); got != tt.wantContains {
				t.Errorf("Contains() = %v, want %v", got, tt.wantContains)
			}
		})
	}
}

func TestTypeSpecificity(t *testing.T) {
	tests := []struct {
		typ  FilterType
		want int
	}{
		{TypeSSN, 100},
		{TypeMRN, 95},
		{TypeCreditCard, 90},
		{TypeName, 35},
		{TypeCustom, 20},
		{FilterType("SOMETHING_NEW"), 25},
	}

	for _, tt := range tests {
		if got := TypeSpecificity(tt.typ); got != tt.want {
			t.Errorf("TypeSpecificity(%s) = %d, want %d", tt.typ, got, tt.want)
		}
	}
}

func TestContainsStructureWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"plain name", "John Smith", false},
		{"swallowed label", "Smith Date of Birth", true},
		{"punctuated label", "Smith DOB:", true},
		{"lowercase label", "smith mrn", true},
		{"embedded not word", "Midrange", false},
		{"id word", "Smith ID", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsStructureWord(tt.text); got != tt.want {
				t.Errorf("ContainsStructureWord(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDeduplicate(t *testing.T) {
	a := &Span{Start: 0, End: 5, Type: TypeName, Confidence: 0.6, Text: "Smith"}
	b := &Span{Start: 0, End: 5, Type: TypeName, Confidence: 0.9, Text: "Smith"}
	c := &Span{Start: 0, End: 5, Type: TypeSSN, Confidence: 0.5, Text: "Smith"}
	d := &Span{Start: 10, End: 15, Type: TypeName, Confidence: 0.7, Text: "Jones"}

	out := Deduplicate([]*Span{a, d, b, c})

	if len(out) != 3 {
		t.Fatalf("Deduplicate() returned %d spans, want 3", len(out))
	}
	// First occurrence order preserved, higher confidence kept in place.
	if out[0] != b {
		t.Errorf("slot 0 = %+v, want the higher-confidence NAME duplicate", out[0])
	}
	if out[1] != d {
		t.Errorf("slot 1 = %+v, want the non-duplicate span", out[1])
	}
	if out[2] != c {
		t.Errorf("slot 2 = %+v, want the SSN span (different type is not a duplicate)", out[2])
	}
}

func TestDeduplicateKeepsFirstOnTie(t *testing.T) {
	a := &Span{Start: 0, End: 5, Type: TypeName, Confidence: 0.8, Text: "first"}
	b := &Span{Start: 0, End: 5, Type: TypeName, Confidence: 0.8, Text: "second"}

	out := Deduplicate([]*Span{a, b})
	if len(out) != 1 || out[0] != a {
		t.Errorf("Deduplicate() tie kept %+v, want the first instance", out[0])
	}
}

func TestContextWindow(t *testing.T) {
	text := "0123456789abcdefghij"

	tests := []struct {
		name       string
		start, end int
		radius     int
		wantBefore string
		wantAfter  string
	}{
		{"middle", 8, 12, 3, "567", "cde"},
		{"clipped left", 1, 3, 5, "0", "34567"},
		{"clipped right", 17, 19, 5, "cdefg", "j"},
		{"whole document", 0, 20, 10, "", ""},
		{"start below zero", -4, 2, 3, "", "234"},
		{"end past length", 18, 99, 3, "fgh", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after := ContextWindow(text, tt.start, tt.end, tt.radius)
			if before != tt.wantBefore || after != tt.wantAfter {
				t.Errorf("ContextWindow() = (%q, %q), want (%q, %q)",
					before, after, tt.wantBefore, tt.wantAfter)
			}
		})
	}
}
