// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package spans

import "strings"

// typeSpecificity ranks how trustworthy a category is when two spans
// compete for the same text. Structured identifiers outrank free-text
// categories. Shared contract with upstream detectors.
var typeSpecificity = map[FilterType]int{
	TypeSSN:          100,
	TypeMRN:          95,
	TypeCreditCard:   90,
	TypeAccount:      85,
	TypeLicense:      85,
	TypePassport:     85,
	TypeIBAN:         85,
	TypeHealthPlan:   85,
	TypeEmail:        80,
	TypePhone:        75,
	TypeFax:          75,
	TypeIP:           75,
	TypeURL:          75,
	TypeMACAddress:   75,
	TypeBitcoin:      75,
	TypeVehicle:      70,
	TypeDevice:       70,
	TypeBiometric:    70,
	TypeNPI:          70,
	TypeDate:         60,
	TypeZipcode:      55,
	TypeAddress:      50,
	TypeCity:         45,
	TypeState:        45,
	TypeCounty:       45,
	TypeAge:          40,
	TypeRelativeDate: 40,
	TypeProviderName: 36,
	TypeName:         35,
	TypeOccupation:   30,
	TypeCustom:       20,
}

// defaultSpecificity is assigned to categories missing from the table.
const defaultSpecificity = 25

// TypeSpecificity returns the static specificity rank for a category.
func TypeSpecificity(t FilterType) int {
	if spec, ok := typeSpecificity[t]; ok {
		return spec
	}
	return defaultSpecificity
}

// nameStructureWords indicate a NAME span likely swallowed an adjacent
// field label ("Name: ... Date of Birth") rather than matching a name.
var nameStructureWords = map[string]bool{
	"DATE": true, "BIRTH": true, "RECORD": true, "NUMBER": true,
	"PHONE": true, "ADDRESS": true, "EMAIL": true, "MEMBER": true,
	"ACCOUNT": true, "STATUS": true, "DOB": true, "MRN": true,
	"SSN": true, "ID": true,
}

// ContainsStructureWord reports whether any whitespace-delimited word
// in text is a known structure word, after stripping punctuation.
func ContainsStructureWord(text string) bool {
	for _, word := range strings.Fields(strings.ToUpper(text)) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
		})
		if nameStructureWords[trimmed] {
			return true
		}
	}
	return false
}

// Deduplicate removes exact (start, end, type) duplicates, keeping the
// highest-confidence instance. Output preserves first-occurrence order
// so the result is deterministic regardless of map iteration.
func Deduplicate(in []*Span) []*Span {
	if len(in) <= 1 {
		return in
	}

	type slot struct {
		pos  int
		span *Span
	}
	seen := make(map[dedupeKey]slot, len(in))
	out := make([]*Span, 0, len(in))

	for _, s := range in {
		key := dedupeKey{s.Start, s.End, s.Type}
		if existing, ok := seen[key]; ok {
			if s.Confidence > existing.span.Confidence {
				out[existing.pos] = s
				seen[key] = slot{existing.pos, s}
			}
			continue
		}
		seen[key] = slot{len(out), s}
		out = append(out, s)
	}
	return out
}

type dedupeKey struct {
	start int
	end   int
	typ   FilterType
}

// ContextRadius is the default window size used for context extraction
// around a span.
const ContextRadius = 100

// ContextWindow returns the text up to radius characters before and
// after the span, clipped to document bounds.
func ContextWindow(text string, start, end, radius int) (before, after string) {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		return "", ""
	}

	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:start], text[end:hi]
}
