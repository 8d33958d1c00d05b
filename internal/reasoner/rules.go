// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package reasoner

import (
	"regexp"

	"phi-arbiter/internal/spans"
)

// Relationship classifies how two PHI categories interact when their
// spans appear near each other.
type Relationship string

const (
	// Exclusive categories share a surface form but cannot both be
	// right; the weaker detection is penalized.
	Exclusive Relationship = "EXCLUSIVE"
	// Supportive categories reinforce each other in context; both
	// detections are boosted.
	Supportive Relationship = "SUPPORTIVE"
)

// Penalty and boost factors applied per rule strength.
const (
	exclusivePenaltyFactor = 0.25
	supportiveBoostFactor  = 0.10
)

// Rule is a declarative cross-category implication. Rules are data,
// addable at runtime without touching the engine.
type Rule struct {
	Name         string
	Type1        spans.FilterType
	Type2        spans.FilterType
	Relationship Relationship
	Strength     float64

	// ContextPattern, when set, gates the rule: it must match the
	// concatenated before/after windows of both spans.
	ContextPattern *regexp.Regexp

	Description string
}

// Matches reports whether the rule covers the category pair, in either
// order.
func (r *Rule) Matches(a, b spans.FilterType) bool {
	return (r.Type1 == a && r.Type2 == b) || (r.Type1 == b && r.Type2 == a)
}

// DefaultRules returns the built-in rule table. The exclusive set names
// category pairs that collide on surface form; the supportive set names
// pairs that co-occur in true PHI context.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:         "SSN_PHONE_EXCLUSIVE",
			Type1:        spans.TypeSSN,
			Type2:        spans.TypePhone,
			Relationship: Exclusive,
			Strength:     0.9,
			Description:  "Nine-digit strings are either an SSN or a phone fragment, not both",
		},
		{
			Name:         "DATE_AGE_EXCLUSIVE",
			Type1:        spans.TypeDate,
			Type2:        spans.TypeAge,
			Relationship: Exclusive,
			Strength:     0.8,
			Description:  "A numeric token near a date is rarely also an age",
		},
		{
			Name:         "MRN_ZIPCODE_EXCLUSIVE",
			Type1:        spans.TypeMRN,
			Type2:        spans.TypeZipcode,
			Relationship: Exclusive,
			Strength:     0.8,
			Description:  "Five-to-eight digit identifiers collide between MRN and ZIP",
		},
		{
			Name:         "MRN_ACCOUNT_EXCLUSIVE",
			Type1:        spans.TypeMRN,
			Type2:        spans.TypeAccount,
			Relationship: Exclusive,
			Strength:     0.6,
			Description:  "Record and account numbers share digit-run shapes",
		},
		{
			Name:         "PHONE_FAX_EXCLUSIVE",
			Type1:        spans.TypePhone,
			Type2:        spans.TypeFax,
			Relationship: Exclusive,
			Strength:     0.5,
			Description:  "The same number line is labeled either phone or fax",
		},
		{
			Name:           "NAME_BIRTHDATE_SUPPORTIVE",
			Type1:          spans.TypeName,
			Type2:          spans.TypeDate,
			Relationship:   Supportive,
			Strength:       0.8,
			ContextPattern: regexp.MustCompile(`(?i)\b(dob|date of birth|born|birth ?date)\b`),
			Description:    "A name next to a birth-labeled date is almost certainly a patient line",
		},
		{
			Name:         "NAME_MRN_SUPPORTIVE",
			Type1:        spans.TypeName,
			Type2:        spans.TypeMRN,
			Relationship: Supportive,
			Strength:     0.6,
			Description:  "Patient headers carry name and MRN together",
		},
		{
			Name:         "NAME_ADDRESS_SUPPORTIVE",
			Type1:        spans.TypeName,
			Type2:        spans.TypeAddress,
			Relationship: Supportive,
			Strength:     0.5,
			Description:  "Demographics blocks pair names with addresses",
		},
		{
			Name:           "NAME_PHONE_SUPPORTIVE",
			Type1:          spans.TypeName,
			Type2:          spans.TypePhone,
			Relationship:   Supportive,
			Strength:       0.5,
			ContextPattern: regexp.MustCompile(`(?i)\b(contact|emergency|next of kin|caregiver)\b`),
			Description:    "Contact blocks pair names with phone numbers",
		},
	}
}
