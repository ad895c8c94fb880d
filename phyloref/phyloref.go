// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package phyloref implements phyloreferences:
// clade definitions anchored by
// internal specifiers (that must be inside the clade)
// and external specifiers (that must be outside the clade).
package phyloref

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/js-arias/otresolver/taxon"
)

// Class is the class of every phyloreference.
const Class = "phyloref:Phyloreference"

// JSON-LD keys of a phyloreference.
const (
	keyID              = "@id"
	keyContext         = "@context"
	keyLabel           = "label"
	keyDefinition      = "cladeDefinition"
	keyIAODefinition   = "obo:IAO_0000115"
	keyInternal        = "internalSpecifiers"
	keyExternal        = "externalSpecifiers"
	keyEquivalentClass = "equivalentClass"
)

// Role is the role of a specifier in a phyloreference.
type Role int

// Specifier roles.
const (
	// Internal specifiers must be included in the clade.
	Internal Role = iota

	// External specifiers must be excluded from the clade.
	External
)

func (r Role) String() string {
	if r == External {
		return "excludes"
	}
	return "includes"
}

// A Phyloref is a phyloreference.
type Phyloref struct {
	ID          string
	Label       string
	Description string

	Internal []taxon.Specifier
	External []taxon.Specifier

	// EquivalentClass is the OWL class expression
	// of the phyloreference,
	// as a JSON value.
	EquivalentClass any

	// Context is the JSON-LD context.
	Context any

	// raw is the imported object,
	// it keeps the fields not modeled here.
	raw map[string]any
}

// New returns a new phyloreference with a label.
func New(label string) *Phyloref {
	return &Phyloref{Label: strings.TrimSpace(label)}
}

// FromJSONLD returns a phyloreference
// from a JSON-LD object.
func FromJSONLD(obj map[string]any) *Phyloref {
	p := &Phyloref{
		ID:              str(obj, keyID),
		Label:           str(obj, keyLabel),
		EquivalentClass: obj[keyEquivalentClass],
		Context:         obj[keyContext],
		raw:             obj,
	}
	p.Description = str(obj, keyDefinition)
	if p.Description == "" {
		p.Description = str(obj, keyIAODefinition)
	}
	p.Internal = specifiers(obj[keyInternal])
	p.External = specifiers(obj[keyExternal])
	return p
}

func specifiers(v any) []taxon.Specifier {
	ls, _ := v.([]any)
	var sp []taxon.Specifier
	for _, o := range ls {
		obj, _ := o.(map[string]any)
		sp = append(sp, taxon.FromJSONLD(obj))
	}
	return sp
}

// Object returns the phyloreference as a JSON-LD object.
// Fields of an imported object not modeled
// by the phyloreference are kept unchanged.
func (p *Phyloref) Object() map[string]any {
	obj := make(map[string]any, len(p.raw)+4)
	for k, v := range p.raw {
		obj[k] = v
	}
	if p.raw == nil {
		obj["@type"] = "owl:Class"
		obj["subClassOf"] = Class
	}

	set := func(key, v string) {
		if v == "" {
			delete(obj, key)
			return
		}
		obj[key] = v
	}
	set(keyID, p.ID)
	set(keyLabel, p.Label)

	defKey := keyDefinition
	if _, ok := p.raw[keyDefinition]; !ok {
		if _, ok := p.raw[keyIAODefinition]; ok {
			defKey = keyIAODefinition
		}
	}
	set(defKey, p.Description)

	setSpecs := func(key string, ls []taxon.Specifier) {
		if len(ls) == 0 {
			if _, ok := p.raw[key]; !ok {
				delete(obj, key)
				return
			}
		}
		v := make([]any, 0, len(ls))
		for _, s := range ls {
			v = append(v, s.Object())
		}
		obj[key] = v
	}
	setSpecs(keyInternal, p.Internal)
	setSpecs(keyExternal, p.External)

	if p.EquivalentClass != nil {
		obj[keyEquivalentClass] = p.EquivalentClass
	} else {
		delete(obj, keyEquivalentClass)
	}
	if p.Context != nil {
		obj[keyContext] = p.Context
	} else {
		delete(obj, keyContext)
	}
	return obj
}

// Equal returns true if two phyloreferences
// have the same JSON-LD object.
//
// The identifier and context are compared
// only if both objects define them,
// as they are assigned when an ontology is assembled.
func (p *Phyloref) Equal(o *Phyloref) bool {
	if p == nil || o == nil {
		return p == o
	}
	a, b := p.Object(), o.Object()
	for _, k := range []string{keyID, keyContext} {
		_, inA := a[k]
		_, inB := b[k]
		if inA != inB {
			delete(a, k)
			delete(b, k)
		}
	}
	return cmp.Equal(a, b)
}

// HasClassExpression returns true
// if the phyloreference has an OWL class expression.
func (p *Phyloref) HasClassExpression() bool {
	return p.EquivalentClass != nil
}

// Title returns the label of the phyloreference
// or a generic label based on its position
// (starting from 0) in a list of phyloreferences.
func (p *Phyloref) Title(pos int) string {
	if p.Label != "" {
		return p.Label
	}
	return fmt.Sprintf("Phyloref %d", pos+1)
}

// An Entry is a specifier of a phyloreference
// with its role.
type Entry struct {
	Role      Role
	Index     int
	Specifier taxon.Specifier
}

// Specifiers returns the specifiers of the phyloreference,
// internal specifiers first.
func (p *Phyloref) Specifiers() []Entry {
	ls := make([]Entry, 0, len(p.Internal)+len(p.External))
	for i, s := range p.Internal {
		ls = append(ls, Entry{Role: Internal, Index: i, Specifier: s})
	}
	for i, s := range p.External {
		ls = append(ls, Entry{Role: External, Index: i, Specifier: s})
	}
	return ls
}

// AddSpecifier adds a specifier with the given role.
func (p *Phyloref) AddSpecifier(r Role, s taxon.Specifier) {
	if r == External {
		p.External = append(p.External, s)
		return
	}
	p.Internal = append(p.Internal, s)
}

// RemoveSpecifier removes the i-th specifier
// with the given role.
func (p *Phyloref) RemoveSpecifier(r Role, i int) (taxon.Specifier, error) {
	ls := &p.Internal
	if r == External {
		ls = &p.External
	}
	if i < 0 || i >= len(*ls) {
		return nil, fmt.Errorf("phyloref %q: no %s specifier %d", p.Label, r, i)
	}
	s := (*ls)[i]
	*ls = append((*ls)[:i:i], (*ls)[i+1:]...)
	return s, nil
}

// ChangeRole moves the i-th specifier with the given role
// to the other role.
func (p *Phyloref) ChangeRole(r Role, i int) error {
	s, err := p.RemoveSpecifier(r, i)
	if err != nil {
		return err
	}
	to := External
	if r == External {
		to = Internal
	}
	p.AddSpecifier(to, s)
	return nil
}

func str(obj map[string]any, key string) string {
	v, _ := obj[key].(string)
	return strings.TrimSpace(v)
}

// Clone returns a copy of the phyloreference.
// JSON values are shared,
// so they must not be modified.
func (p *Phyloref) Clone() *Phyloref {
	c := *p
	c.Internal = append([]taxon.Specifier(nil), p.Internal...)
	c.External = append([]taxon.Specifier(nil), p.External...)
	return &c
}
