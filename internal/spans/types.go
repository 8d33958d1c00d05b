// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package spans

// FilterType identifies the PHI category a span was detected as.
// The set is a shared contract with upstream detectors; adding a new
// category requires a TypeSpecificity entry or the new category
// receives the low default specificity.
type FilterType string

const (
	TypeName         FilterType = "NAME"
	TypeSSN          FilterType = "SSN"
	TypeDate         FilterType = "DATE"
	TypeRelativeDate FilterType = "RELATIVE_DATE"
	TypePhone        FilterType = "PHONE"
	TypeFax          FilterType = "FAX"
	TypeEmail        FilterType = "EMAIL"
	TypeAddress      FilterType = "ADDRESS"
	TypeMRN          FilterType = "MRN"
	TypeNPI          FilterType = "NPI"
	TypeZipcode      FilterType = "ZIPCODE"
	TypeCity         FilterType = "CITY"
	TypeState        FilterType = "STATE"
	TypeCounty       FilterType = "COUNTY"
	TypeAge          FilterType = "AGE"
	TypeCreditCard   FilterType = "CREDIT_CARD"
	TypeAccount      FilterType = "ACCOUNT"
	TypeLicense      FilterType = "LICENSE"
	TypePassport     FilterType = "PASSPORT"
	TypeIBAN         FilterType = "IBAN"
	TypeHealthPlan   FilterType = "HEALTH_PLAN"
	TypeIP           FilterType = "IP"
	TypeURL          FilterType = "URL"
	TypeMACAddress   FilterType = "MAC_ADDRESS"
	TypeBitcoin      FilterType = "BITCOIN"
	TypeVehicle      FilterType = "VEHICLE"
	TypeDevice       FilterType = "DEVICE"
	TypeBiometric    FilterType = "BIOMETRIC"
	TypeProviderName FilterType = "PROVIDER_NAME"
	TypeOccupation   FilterType = "OCCUPATION"
	TypeCustom       FilterType = "CUSTOM"
)

// Span is a candidate PHI detection: a half-open character range
// [Start, End) in a document, with the detecting category and a
// mutable confidence. Spans are created upstream and flow through the
// engine by reference; the engine mutates Confidence (and occasionally
// Pattern) in place and never re-creates identity for a span it scores.
type Span struct {
	Start      int        `json:"start" yaml:"start"`
	End        int        `json:"end" yaml:"end"`
	Type       FilterType `json:"type" yaml:"type"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
	Priority   int        `json:"priority" yaml:"priority"`
	Text       string     `json:"text" yaml:"text"`

	// Pattern names the rule or regex that produced the span, when known.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// Bookkeeping set by downstream consumers.
	Applied bool `json:"applied,omitempty" yaml:"applied,omitempty"`
	Ignored bool `json:"ignored,omitempty" yaml:"ignored,omitempty"`
}

// Valid reports whether the span has a usable range. A span with
// Start >= End cannot be scored or placed in the interval index and is
// dropped at the engine boundary.
func (s *Span) Valid() bool {
	return s.Start < s.End
}

// Length returns the character length of the span.
func (s *Span) Length() int {
	return s.End - s.Start
}

// ClampConfidence forces Confidence back into [0, 1]. Called on every
// read/write boundary so upstream or rule-pass excursions never escape.
func (s *Span) ClampConfidence() {
	if s.Confidence < 0 {
		s.Confidence = 0
	} else if s.Confidence > 1 {
		s.Confidence = 1
	}
}

// Clone returns a deep copy. The engine itself never clones; callers
// that need pre-adjustment state (replay, testing) snapshot with this.
func (s *Span) Clone() *Span {
	dup := *s
	return &dup
}

// Overlaps reports whether two half-open ranges intersect.
func (s *Span) Overlaps(other *Span) bool {
	return !(s.End <= other.Start || s.Start >= other.End)
}

// Contains reports whether s fully contains other.
func (s *Span) Contains(other *Span) bool {
	return s.Start <= other.Start && s.End >= other.End
}

// Clamp01 bounds a bare confidence value to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
