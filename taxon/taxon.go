// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package taxon implements the taxonomic units
// used as specifiers of a phyloreference.
//
// A specifier is either a scientific name
// or a specimen.
// Both are read from phyx-style JSON-LD objects,
// and both provide a human readable label
// and an OWL class expression.
package taxon

import (
	"regexp"
	"strings"
)

// Label prefixes and placeholders.
const (
	// SpecimenPrefix is the prefix of every specimen label.
	SpecimenPrefix = "Specimen"

	// Unreadable is the label used
	// when a specifier cannot be read.
	Unreadable = "(could not read)"
)

// JSON-LD terms used for taxonomic units.
const (
	TaxonomicUnitType = "http://rs.tdwg.org/ontology/voc/TaxonConcept#TaxonConcept"
	hasName           = "http://rs.tdwg.org/ontology/voc/TaxonConcept#hasName"
	nameComplete      = "http://rs.tdwg.org/ontology/voc/TaxonName#nameComplete"
	occurrenceID      = "http://rs.tdwg.org/dwc/terms/occurrenceID"
)

// A Specifier is a taxonomic unit
// used to anchor a phyloreference.
type Specifier interface {
	// Label returns a human readable label.
	Label() string

	// Object returns the specifier as a JSON-LD object.
	Object() map[string]any

	// ClassExpression returns an OWL class expression
	// that matches the specifier,
	// or nil if no expression can be built.
	ClassExpression() map[string]any
}

// binomial matches the genus and specific epithet
// at the start of a label.
var binomial = regexp.MustCompile(`^\w+ [a-z-]+`)

// Binomial returns the binomial name
// (genus and specific epithet)
// at the start of a label.
// It returns an empty string
// if the label is a specimen label
// or it does not start with a binomial.
func Binomial(label string) string {
	if strings.HasPrefix(label, SpecimenPrefix) {
		return ""
	}
	return binomial.FindString(label)
}

// Name returns the binomial name of a specifier,
// or an empty string if the specifier
// is not a scientific name.
func Name(s Specifier) string {
	if s == nil {
		return ""
	}
	return Binomial(s.Label())
}

// FromJSONLD returns a specifier
// from a phyx-style JSON-LD object.
//
// Scientific names are read from
// "scientificNames", "hasName", "nameString",
// or "scientificName" fields.
// Specimens are read from "includesSpecimens",
// "occurrenceID", or "catalogNumber" fields.
// Any other object is returned
// as an unreadable specifier,
// that keeps the original object.
func FromJSONLD(obj map[string]any) Specifier {
	if obj == nil {
		return &Unknown{}
	}

	if ls, ok := obj["scientificNames"].([]any); ok && len(ls) > 0 {
		if sn, ok := ls[0].(map[string]any); ok {
			if name := str(sn, "scientificName"); name != "" {
				return &ScientificName{Name: name, raw: obj}
			}
		}
	}
	if hn, ok := obj["hasName"].(map[string]any); ok {
		for _, f := range []string{"nameComplete", "label"} {
			if name := str(hn, f); name != "" {
				return &ScientificName{Name: name, raw: obj}
			}
		}
	}
	for _, f := range []string{"nameString", "scientificName"} {
		if name := str(obj, f); name != "" {
			return &ScientificName{Name: name, raw: obj}
		}
	}

	if ls, ok := obj["includesSpecimens"].([]any); ok && len(ls) > 0 {
		if sp, ok := ls[0].(map[string]any); ok {
			s := specimenFields(sp)
			s.raw = obj
			return s
		}
	}
	if str(obj, "occurrenceID") != "" || str(obj, "catalogNumber") != "" {
		s := specimenFields(obj)
		s.raw = obj
		return s
	}

	return &Unknown{raw: obj}
}

// FromLabel returns a scientific name specifier
// from a tree node label.
// It returns false if the label
// does not start with a binomial name.
func FromLabel(label string) (Specifier, bool) {
	label = strings.Join(strings.Fields(label), " ")
	if Binomial(label) == "" {
		return nil, false
	}
	return NewScientificName(label), true
}

func str(obj map[string]any, field string) string {
	v, _ := obj[field].(string)
	return strings.TrimSpace(v)
}

func clone(obj map[string]any) map[string]any {
	c := make(map[string]any, len(obj))
	for k, v := range obj {
		c[k] = v
	}
	return c
}
