// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package phyloref

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// shapeSchema is a shallow shape check
// of a phyloreference object.
const shapeSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"@id": {"type": "string"},
		"label": {"type": "string"},
		"cladeDefinition": {"type": "string"},
		"internalSpecifiers": {"type": "array", "items": {"type": "object"}},
		"externalSpecifiers": {"type": "array", "items": {"type": "object"}}
	}
}`

var shape *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(shapeSchema))
	if err != nil {
		panic(fmt.Sprintf("phyloref: invalid shape schema: %v", err))
	}
	shape = s
}

// A ShapeError is a phyloreference
// with an invalid shape.
type ShapeError struct {
	// Label is the label of the invalid object,
	// if any.
	Label   string
	Reasons []string
}

func (e *ShapeError) Error() string {
	l := e.Label
	if l == "" {
		l = "(no label)"
	}
	return fmt.Sprintf("phyloref %s: invalid shape: %s", l, strings.Join(e.Reasons, "; "))
}

// Check checks the shape of a phyloreference object.
func Check(v any) error {
	res, err := shape.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return fmt.Errorf("phyloref: shape check: %w", err)
	}
	if res.Valid() {
		return nil
	}
	se := &ShapeError{}
	if obj, ok := v.(map[string]any); ok {
		se.Label = str(obj, keyLabel)
	}
	for _, d := range res.Errors() {
		se.Reasons = append(se.Reasons, d.Field()+": "+d.Description())
	}
	return se
}

// Extract returns the phyloreferences in a JSON-LD document.
//
// Arrays are scanned recursively.
// Every element of a "phylorefs" array is a phyloreference,
// as well as any object whose "subClassOf"
// is, or includes, the phyloreference class.
// Phyloreferences are returned in document order
// without duplicates.
// Objects with an invalid shape are skipped,
// and reported in the returned error.
func Extract(doc any) ([]*Phyloref, error) {
	var ls []*Phyloref
	var errs []error
	add := func(v any) {
		if err := Check(v); err != nil {
			errs = append(errs, err)
			return
		}
		p := FromJSONLD(v.(map[string]any))
		for _, o := range ls {
			if o.Equal(p) {
				return
			}
		}
		ls = append(ls, p)
	}

	var scan func(v any)
	scan = func(v any) {
		switch v := v.(type) {
		case []any:
			for _, e := range v {
				scan(e)
			}
		case map[string]any:
			if refs, ok := v["phylorefs"].([]any); ok {
				for _, r := range refs {
					add(r)
				}
			}
			if isPhyloref(v) {
				add(v)
			}
		}
	}
	scan(doc)
	return ls, errors.Join(errs...)
}

func isPhyloref(obj map[string]any) bool {
	switch sc := obj["subClassOf"].(type) {
	case string:
		return sc == Class
	case []any:
		for _, c := range sc {
			if s, ok := c.(string); ok && s == Class {
				return true
			}
		}
	}
	return false
}
