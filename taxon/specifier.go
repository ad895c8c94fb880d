// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package taxon

import "strings"

// A ScientificName is a specifier
// defined by a scientific name.
type ScientificName struct {
	Name string

	raw map[string]any
}

// NewScientificName returns a scientific name specifier.
func NewScientificName(name string) *ScientificName {
	return &ScientificName{Name: strings.TrimSpace(name)}
}

// Label returns the scientific name.
func (s *ScientificName) Label() string {
	if s == nil || strings.TrimSpace(s.Name) == "" {
		return Unreadable
	}
	return strings.TrimSpace(s.Name)
}

// Object returns the scientific name as a JSON-LD object.
// If the specifier was read from a JSON-LD object,
// a copy of the original object is returned.
func (s *ScientificName) Object() map[string]any {
	if s == nil {
		return nil
	}
	if s.raw != nil {
		return clone(s.raw)
	}
	return map[string]any{
		"@type": TaxonomicUnitType,
		"scientificNames": []any{
			map[string]any{
				"scientificName": s.Name,
			},
		},
	}
}

// ClassExpression returns a restriction
// on taxon concepts with the given complete name.
// The binomial is used when available.
func (s *ScientificName) ClassExpression() map[string]any {
	if s == nil || strings.TrimSpace(s.Name) == "" {
		return nil
	}
	name := Binomial(s.Label())
	if name == "" {
		name = s.Label()
	}
	return map[string]any{
		"@type":      "owl:Restriction",
		"onProperty": hasName,
		"someValuesFrom": map[string]any{
			"@type":      "owl:Restriction",
			"onProperty": nameComplete,
			"hasValue":   name,
		},
	}
}

// A Specimen is a specifier
// defined by a specimen.
type Specimen struct {
	OccurrenceID    string
	InstitutionCode string
	CollectionCode  string
	CatalogNumber   string

	raw map[string]any
}

func specimenFields(obj map[string]any) *Specimen {
	return &Specimen{
		OccurrenceID:    str(obj, "occurrenceID"),
		InstitutionCode: str(obj, "institutionCode"),
		CollectionCode:  str(obj, "collectionCode"),
		CatalogNumber:   str(obj, "catalogNumber"),
	}
}

// ID returns the identifier of the specimen:
// the occurrence ID,
// or the triplet institution:collection:catalog.
func (s *Specimen) ID() string {
	if s == nil {
		return ""
	}
	if s.OccurrenceID != "" {
		return s.OccurrenceID
	}
	var parts []string
	for _, p := range []string{s.InstitutionCode, s.CollectionCode, s.CatalogNumber} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ":")
}

// Label returns the specimen label.
// It always starts with "Specimen".
func (s *Specimen) Label() string {
	id := s.ID()
	if id == "" {
		return SpecimenPrefix + " " + Unreadable
	}
	return SpecimenPrefix + " " + id
}

// Object returns the specimen as a JSON-LD object.
func (s *Specimen) Object() map[string]any {
	if s == nil {
		return nil
	}
	if s.raw != nil {
		return clone(s.raw)
	}

	sp := map[string]any{
		"@type": "http://rs.tdwg.org/dwc/terms/Occurrence",
	}
	fields := []struct {
		name, value string
	}{
		{"occurrenceID", s.OccurrenceID},
		{"institutionCode", s.InstitutionCode},
		{"collectionCode", s.CollectionCode},
		{"catalogNumber", s.CatalogNumber},
	}
	for _, f := range fields {
		if f.value != "" {
			sp[f.name] = f.value
		}
	}
	return map[string]any{
		"@type":             TaxonomicUnitType,
		"includesSpecimens": []any{sp},
	}
}

// ClassExpression returns a restriction
// on the occurrence ID of the specimen.
func (s *Specimen) ClassExpression() map[string]any {
	id := s.ID()
	if id == "" {
		return nil
	}
	return map[string]any{
		"@type":      "owl:Restriction",
		"onProperty": occurrenceID,
		"hasValue":   id,
	}
}

// Unknown is a specifier that cannot be read.
// It keeps the original object
// so it can be written back unchanged.
type Unknown struct {
	raw map[string]any
}

// Label returns the unreadable placeholder.
func (u *Unknown) Label() string {
	return Unreadable
}

// Object returns the original object.
func (u *Unknown) Object() map[string]any {
	if u == nil || u.raw == nil {
		return map[string]any{}
	}
	return clone(u.raw)
}

// ClassExpression always returns nil.
func (u *Unknown) ClassExpression() map[string]any {
	return nil
}
