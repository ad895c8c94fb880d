// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package view

import (
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"github.com/js-arias/otresolver/session"
	"github.com/js-arias/otresolver/subtree"
	"github.com/js-arias/otresolver/taxon"
)

// Open Tree of Life browser addresses.
const (
	treeBrowser     = "https://tree.opentreeoflife.org/opentree/@"
	taxonomyBrowser = "https://tree.opentreeoflife.org/taxonomy/browse?id="
)

var (
	ottLabel  = regexp.MustCompile(`^.*[_\s](.*?ott.*)$`)
	mrcaLabel = regexp.MustCompile(`^mrca.*$`)
	binomial  = regexp.MustCompile(`^\w+ [a-z-]+`)
	newlines  = regexp.MustCompile(`\n+`)
)

// NodeURL returns the address of a node
// of the synthetic tree in the Open Tree browser,
// from the label of a phylogeny node.
// It returns an empty string if the label
// does not identify an Open Tree node.
func NodeURL(label string) string {
	if m := ottLabel.FindStringSubmatch(label); m != nil {
		return treeBrowser + m[1]
	}
	if m := mrcaLabel.FindString(label); m != "" {
		return treeBrowser + m
	}
	return ""
}

// TaxonURL returns the address of a taxon
// of the synthetic tree in the Open Tree browser.
func TaxonURL(ott int64) string {
	return treeBrowser + "ott" + strconv.FormatInt(ott, 10)
}

// TaxonomyURL returns the address of a taxon
// in the Open Tree taxonomy browser.
func TaxonomyURL(ott int64) string {
	return taxonomyBrowser + strconv.FormatInt(ott, 10)
}

// SpecifierHTML returns the label of a specifier
// with the binomial name in italics.
func SpecifierHTML(label string) template.HTML {
	if label == "" {
		label = taxon.Unreadable
	}
	if strings.HasPrefix(label, "Specimen") || label == taxon.Unreadable {
		return template.HTML(template.HTMLEscapeString(label))
	}
	loc := binomial.FindStringIndex(label)
	if loc == nil {
		return template.HTML(template.HTMLEscapeString(label))
	}
	return template.HTML("<em>" + template.HTMLEscapeString(label[:loc[1]]) + "</em>" + template.HTMLEscapeString(label[loc[1]:]))
}

// Description returns the description of a phyloreference
// with line breaks.
func Description(desc string) template.HTML {
	if desc == "" {
		desc = "None"
	}
	return template.HTML(newlines.ReplaceAllString(template.HTMLEscapeString(desc), "<br />"))
}

// A Row is a specifier of a phyloreference in the table.
type Row struct {
	Role      string
	Specifier template.HTML

	// OTT is the OTT ID of the specifier,
	// or 0 if the specifier is not matched.
	OTT         int64
	TaxonURL    string
	TaxonomyURL string

	// Unknown is the reason for which the OTT ID
	// is not in the synthetic tree.
	Unknown string
}

// A Group is a phyloreference in the table.
type Group struct {
	Title       string
	Description template.HTML

	// Resolved node of the phylogeny.
	NodeLabel string
	NodeURL   string

	Rows []Row
}

// Table returns the phyloreference table of a session.
func Table(st *session.State) []Group {
	ps := st.Phylorefs()
	res := st.Results()
	ix := st.Index()
	unknown := st.Unknown()

	groups := make([]Group, 0, len(ps))
	for i, p := range ps {
		g := Group{
			Title:       p.Title(i),
			Description: Description(p.Description),
		}
		if nodes := res[p.ID]; p.ID != "" && len(nodes) > 0 {
			g.NodeLabel = ix.Label(nodes[0])
			g.NodeURL = NodeURL(g.NodeLabel)
		}

		for _, e := range p.Specifiers() {
			r := Row{
				Role:      e.Role.String(),
				Specifier: SpecifierHTML(e.Specifier.Label()),
			}
			if id, ok := st.OTTID(e.Specifier); ok {
				r.OTT = id
				r.TaxonURL = TaxonURL(id)
				r.TaxonomyURL = TaxonomyURL(id)
				r.Unknown = unknown[subtree.Key(id)]
			}
			g.Rows = append(g.Rows, r)
		}
		groups = append(groups, g)
	}
	return groups
}
