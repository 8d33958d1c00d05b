// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package reasoner

import (
	"math"
	"testing"

	"phi-arbiter/internal/spans"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"John Quint", "john quint"},
		{"  John \t Quint \n", "john quint"},
		{"JOHN QUINT", "john quint"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSpanGap(t *testing.T) {
	tests := []struct {
		name string
		a, b *spans.Span
		want int
	}{
		{"disjoint", &spans.Span{Start: 0, End: 5}, &spans.Span{Start: 10, End: 15}, 5},
		{"adjacent", &spans.Span{Start: 0, End: 5}, &spans.Span{Start: 5, End: 10}, 0},
		{"overlapping", &spans.Span{Start: 0, End: 10}, &spans.Span{Start: 5, End: 15}, 0},
		{"reversed order", &spans.Span{Start: 10, End: 15}, &spans.Span{Start: 0, End: 5}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := spanGap(tt.a, tt.b); got != tt.want {
				t.Errorf("spanGap() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildFacts(t *testing.T) {
	text := "123-45-6789 call 555-123-4567 for John Quint and john  quint"
	spanList := []*spans.Span{
		{Start: 0, End: 11, Type: spans.TypeSSN, Confidence: 0.6, Text: "123-45-6789"},
		{Start: 17, End: 29, Type: spans.TypePhone, Confidence: 0.8, Text: "555-123-4567"},
		{Start: 34, End: 44, Type: spans.TypeName, Confidence: 0.7, Text: "John Quint"},
		{Start: 49, End: 60, Type: spans.TypeName, Confidence: 0.5, Text: "john  quint"},
	}

	facts := BuildFacts(spanList, text, DefaultProximityWindow, spans.ContextRadius)

	if len(facts.Detected) != 4 {
		t.Fatalf("Detected = %d facts, want 4", len(facts.Detected))
	}
	if len(facts.Context) != 4 {
		t.Fatalf("Context = %d facts, want 4", len(facts.Context))
	}
	// All pairs are within the default window.
	if len(facts.Nearby) != 6 {
		t.Errorf("Nearby = %d facts, want 6", len(facts.Nearby))
	}
	if len(facts.SameText) != 1 {
		t.Fatalf("SameText = %d facts, want 1", len(facts.SameText))
	}
	if st := facts.SameText[0]; st.ID1 != 2 || st.ID2 != 3 || st.Normalized != "john quint" {
		t.Errorf("SameText[0] = %+v, want pair (2, 3) %q", st, "john quint")
	}
}

func TestExclusiveRulePenalizesWeakerSpan(t *testing.T) {
	text := "123-45-6789 call 555-123-4567"
	ssn := &spans.Span{Start: 0, End: 11, Type: spans.TypeSSN, Confidence: 0.6, Text: "123-45-6789"}
	phone := &spans.Span{Start: 17, End: 29, Type: spans.TypePhone, Confidence: 0.8, Text: "555-123-4567"}

	r := NewDefaultReasoner()
	r.Adjust([]*spans.Span{ssn, phone}, text)

	// Strength 0.9 times the penalty factor 0.25 comes off the weaker.
	if !approxEqual(ssn.Confidence, 0.375) {
		t.Errorf("SSN confidence = %v, want 0.375", ssn.Confidence)
	}
	if !approxEqual(phone.Confidence, 0.8) {
		t.Errorf("PHONE confidence = %v, want 0.8 unchanged", phone.Confidence)
	}
}

func TestExclusiveTieGoesToLaterSpan(t *testing.T) {
	ssn := &spans.Span{Start: 0, End: 9, Type: spans.TypeSSN, Confidence: 0.7, Text: "123456789"}
	phone := &spans.Span{Start: 20, End: 29, Type: spans.TypePhone, Confidence: 0.7, Text: "987654321"}

	r := NewDefaultReasoner()
	r.Adjust([]*spans.Span{ssn, phone}, "")

	if !approxEqual(ssn.Confidence, 0.7) {
		t.Errorf("earlier span confidence = %v, want 0.7 unchanged", ssn.Confidence)
	}
	if !approxEqual(phone.Confidence, 0.475) {
		t.Errorf("later span confidence = %v, want 0.475", phone.Confidence)
	}
}

func TestDistantSpansUnaffected(t *testing.T) {
	ssn := &spans.Span{Start: 0, End: 11, Type: spans.TypeSSN, Confidence: 0.6, Text: "123-45-6789"}
	phone := &spans.Span{Start: 500, End: 512, Type: spans.TypePhone, Confidence: 0.8, Text: "555-123-4567"}

	r := NewDefaultReasoner()
	r.Adjust([]*spans.Span{ssn, phone}, "")

	if !approxEqual(ssn.Confidence, 0.6) || !approxEqual(phone.Confidence, 0.8) {
		t.Errorf("confidences = %v, %v, want 0.6, 0.8 unchanged beyond the proximity window",
			ssn.Confidence, phone.Confidence)
	}
}

func TestSupportiveRuleRequiresContext(t *testing.T) {
	name := &spans.Span{Start: 20, End: 30, Type: spans.TypeName, Confidence: 0.7, Text: "John Quint"}
	date := &spans.Span{Start: 5, End: 15, Type: spans.TypeDate, Confidence: 0.6, Text: "01/02/1980"}

	// Window carries the birth label: both members boosted by
	// strength 0.8 times the boost factor 0.10.
	r := NewDefaultReasoner()
	r.Adjust([]*spans.Span{date, name}, "DOB: 01/02/1980 for John Quint")

	if !approxEqual(date.Confidence, 0.68) {
		t.Errorf("DATE confidence = %v, want 0.68", date.Confidence)
	}
	if !approxEqual(name.Confidence, 0.78) {
		t.Errorf("NAME confidence = %v, want 0.78", name.Confidence)
	}

	// Without the label the gated rule stays silent.
	name2 := &spans.Span{Start: 25, End: 35, Type: spans.TypeName, Confidence: 0.7, Text: "John Quint"}
	date2 := &spans.Span{Start: 8, End: 18, Type: spans.TypeDate, Confidence: 0.6, Text: "01/02/1980"}

	r2 := NewDefaultReasoner()
	r2.Adjust([]*spans.Span{date2, name2}, "meeting 01/02/1980 with John Quint")

	if !approxEqual(date2.Confidence, 0.6) || !approxEqual(name2.Confidence, 0.7) {
		t.Errorf("confidences = %v, %v, want unchanged without birth context",
			date2.Confidence, name2.Confidence)
	}
}

func TestUngatedSupportiveRuleBoostsBoth(t *testing.T) {
	name := &spans.Span{Start: 0, End: 10, Type: spans.TypeName, Confidence: 0.7, Text: "John Quint"}
	mrn := &spans.Span{Start: 15, End: 23, Type: spans.TypeMRN, Confidence: 0.6, Text: "12345678"}

	r := NewDefaultReasoner()
	r.Adjust([]*spans.Span{name, mrn}, "John Quint MRN 12345678")

	if !approxEqual(name.Confidence, 0.76) {
		t.Errorf("NAME confidence = %v, want 0.76", name.Confidence)
	}
	if !approxEqual(mrn.Confidence, 0.66) {
		t.Errorf("MRN confidence = %v, want 0.66", mrn.Confidence)
	}
}

func TestConsistencyMajorityAndMinority(t *testing.T) {
	a := &spans.Span{Start: 0, End: 10, Type: spans.TypeName, Confidence: 0.5, Text: "John Quint"}
	b := &spans.Span{Start: 30, End: 40, Type: spans.TypeName, Confidence: 0.5, Text: "John Quint"}
	c := &spans.Span{Start: 60, End: 70, Type: spans.TypeOccupation, Confidence: 0.5, Text: "John Quint"}

	r := NewDefaultReasoner()
	r.Adjust([]*spans.Span{a, b, c}, "")

	if !approxEqual(a.Confidence, 0.6) || !approxEqual(b.Confidence, 0.6) {
		t.Errorf("majority-typed confidences = %v, %v, want 0.6", a.Confidence, b.Confidence)
	}
	if !approxEqual(c.Confidence, 0.375) {
		t.Errorf("minority-typed confidence = %v, want 0.375", c.Confidence)
	}
}

func TestMajorityTypeTieBreaksLexicographically(t *testing.T) {
	counts := map[spans.FilterType]int{
		spans.TypePhone: 2,
		spans.TypeFax:   2,
	}
	if got := majorityType(counts); got != spans.TypeFax {
		t.Errorf("majorityType() = %v, want FAX on a tie", got)
	}
}

func TestAdjustClampsToZero(t *testing.T) {
	ssn := &spans.Span{Start: 0, End: 9, Type: spans.TypeSSN, Confidence: 0.1, Text: "123456789"}
	phone := &spans.Span{Start: 15, End: 24, Type: spans.TypePhone, Confidence: 0.9, Text: "555123456"}

	r := NewDefaultReasoner()
	r.Adjust([]*spans.Span{ssn, phone}, "")

	if ssn.Confidence != 0 {
		t.Errorf("SSN confidence = %v, want clamped to 0", ssn.Confidence)
	}
}

func TestAdjustRecoversFromBadRule(t *testing.T) {
	bad := Rule{
		Name:         "BAD_RULE",
		Type1:        spans.TypeName,
		Type2:        spans.TypeDate,
		Relationship: Relationship("SIDEWAYS"),
		Strength:     0.5,
	}
	r := NewReasoner([]Rule{bad}, nil)

	name := &spans.Span{Start: 0, End: 10, Type: spans.TypeName, Confidence: 0.7, Text: "John Quint"}
	date := &spans.Span{Start: 15, End: 25, Type: spans.TypeDate, Confidence: 0.6, Text: "01/02/1980"}

	out := r.Adjust([]*spans.Span{name, date}, "")

	if len(out) != 2 {
		t.Fatalf("Adjust() returned %d spans, want 2", len(out))
	}
	if !approxEqual(name.Confidence, 0.7) || !approxEqual(date.Confidence, 0.6) {
		t.Errorf("confidences = %v, %v, want restored to 0.7, 0.6 after failed pass",
			name.Confidence, date.Confidence)
	}
}

func TestTraceRecordsFirings(t *testing.T) {
	ssn := &spans.Span{Start: 0, End: 11, Type: spans.TypeSSN, Confidence: 0.6, Text: "123-45-6789"}
	phone := &spans.Span{Start: 17, End: 29, Type: spans.TypePhone, Confidence: 0.8, Text: "555-123-4567"}

	r := NewDefaultReasoner()
	r.Adjust([]*spans.Span{ssn, phone}, "")

	trace := r.Trace()
	if len(trace) != 1 {
		t.Fatalf("Trace() has %d firings, want 1", len(trace))
	}
	firing := trace[0]
	if firing.Rule != "SSN_PHONE_EXCLUSIVE" {
		t.Errorf("firing rule = %q, want SSN_PHONE_EXCLUSIVE", firing.Rule)
	}
	if firing.SpanID != 0 {
		t.Errorf("firing span = %d, want 0 (the weaker SSN)", firing.SpanID)
	}
	if !approxEqual(firing.Delta, -0.225) {
		t.Errorf("firing delta = %v, want -0.225", firing.Delta)
	}
	if firing.TraceID == "" {
		t.Error("firing has empty trace id")
	}
}

func TestAddRule(t *testing.T) {
	r := NewReasoner(nil, nil)
	r.AddRule(Rule{
		Name:         "CITY_STATE_SUPPORTIVE",
		Type1:        spans.TypeCity,
		Type2:        spans.TypeState,
		Relationship: Supportive,
		Strength:     0.4,
	})

	city := &spans.Span{Start: 0, End: 6, Type: spans.TypeCity, Confidence: 0.5, Text: "Dayton"}
	state := &spans.Span{Start: 8, End: 12, Type: spans.TypeState, Confidence: 0.5, Text: "Ohio"}

	r.Adjust([]*spans.Span{city, state}, "Dayton, Ohio")

	if !approxEqual(city.Confidence, 0.54) || !approxEqual(state.Confidence, 0.54) {
		t.Errorf("confidences = %v, %v, want both boosted to 0.54",
			city.Confidence, state.Confidence)
	}
}

func TestLegacyReasonerSSNPhone(t *testing.T) {
	ssn := &spans.Span{Start: 0, End: 11, Type: spans.TypeSSN, Confidence: 0.6, Text: "123-45-6789"}
	phone := &spans.Span{Start: 17, End: 29, Type: spans.TypePhone, Confidence: 0.8, Text: "555-123-4567"}

	NewLegacyReasoner().Adjust([]*spans.Span{ssn, phone}, "")

	if !approxEqual(ssn.Confidence, 0.375) {
		t.Errorf("SSN confidence = %v, want 0.375", ssn.Confidence)
	}
	if !approxEqual(phone.Confidence, 0.8) {
		t.Errorf("PHONE confidence = %v, want 0.8 unchanged", phone.Confidence)
	}
}

func TestLegacyReasonerSameTextConflict(t *testing.T) {
	a := &spans.Span{Start: 0, End: 10, Type: spans.TypeName, Confidence: 0.7, Text: "John Quint"}
	b := &spans.Span{Start: 30, End: 40, Type: spans.TypeOccupation, Confidence: 0.5, Text: "John Quint"}

	NewLegacyReasoner().Adjust([]*spans.Span{a, b}, "")

	if !approxEqual(a.Confidence, 0.7) {
		t.Errorf("stronger typing confidence = %v, want 0.7 unchanged", a.Confidence)
	}
	if !approxEqual(b.Confidence, 0.375) {
		t.Errorf("weaker typing confidence = %v, want 0.375", b.Confidence)
	}
}

func TestNoopReasoner(t *testing.T) {
	a := &spans.Span{Start: 0, End: 9, Type: spans.TypeSSN, Confidence: 0.6, Text: "123456789"}
	b := &spans.Span{Start: 15, End: 24, Type: spans.TypePhone, Confidence: 0.8, Text: "555123456"}

	out := NoopReasoner{}.Adjust([]*spans.Span{a, b}, "")

	if len(out) != 2 || !approxEqual(a.Confidence, 0.6) || !approxEqual(b.Confidence, 0.8) {
		t.Errorf("NoopReasoner changed the span set: %v, %v", a.Confidence, b.Confidence)
	}
}
