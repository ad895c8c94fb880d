// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package main

import "github.com/js-arias/command"

func init() {
	app.Add(configGuide)
	app.Add(projectsGuide)
}

var projectsGuide = &command.Command{
	Usage: "projects",
	Short: "about project files",
	Long: `
A curation session of otresolver is made of several files: the
phyloreferences, the phylogeny, and the responses of the Open Tree services.
To keep track of them, a single project file holds the reference of all the
files of the session. This guide explains the structure of the file, but most
of the time, the best way to edit or view this file is by using otresolver
commands.

A project file is a tab-delimited file with the following fields:

	- dataset  for the kind of file
	- path     for the path of the file

Here is an example file:

	# otresolver project files
	dataset	path
	phylorefs	phylorefs.jsonld
	phylogeny	phylogeny.nwk
	taxonomy	taxonomy.tab
	unknown	unknown.tab
	results	results.tab

The valid file types are:

- Phyloreferences. Defined by the dataset keyword "phylorefs". This file
  contains the phyloreferences as a JSON-LD document. The recommended way to
  add phyloreferences is by using the command 'otresolver import'.
- Phylogeny. Defined by the dataset keyword "phylogeny". This file contains a
  phylogeny in Newick format. It can be set with the command
  'otresolver newick' or downloaded from the Open Tree of Life with
  'otresolver subtree'.
- Taxonomy matches. Defined by the dataset keyword "taxonomy". This file
  contains the matches of the specifier names in the Open Tree Taxonomy, in
  the form of a tab-delimited file. It is written by the command
  'otresolver tnrs'.
- Unknown OTT IDs. Defined by the dataset keyword "unknown". This file
  contains the OTT IDs that are not in the synthetic tree, with the reason
  given by the Open Tree, in the form of a tab-delimited file. It is written
  by the command 'otresolver subtree'.
- Reasoning results. Defined by the dataset keyword "results". This file
  contains the phylogeny nodes resolved by the reasoner for each
  phyloreference, in the form of a tab-delimited file. It is written by the
  command 'otresolver reason'.
- Ontology. Defined by the dataset keyword "ontology". This file contains the
  last JSON-LD document exported with 'otresolver export'.

If a dataset is not defined, the commands use a file with a default name
(for example "phylogeny.nwk") in the directory of the project file.
	`,
}

var configGuide = &command.Command{
	Usage: "config",
	Short: "about the configuration file",
	Long: `
The addresses of the remote services used by otresolver are deployment
values. They are read from a YAML file, by default "otresolver.yaml" in the
working directory. Use the environment variable OTRESOLVER_CONFIG to set a
different file. If the file does not exist, the default values are used.

Here is an example file with the default values:

	reasoning:
	  url: https://phyloref.rc.ufl.edu/hooks/reason
	  secret: undefined
	  algorithm: sha1
	tnrs:
	  url: https://api.opentreeoflife.org/v3/tnrs/match_names
	  context: ""
	  approximate: false
	  batch: 999
	  inflight: 4
	  flags: []
	subtree:
	  url: https://ot39.opentreeoflife.org/v3/tree_of_life/induced_subtree
	  fallback: https://api.opentreeoflife.org/v3/tree_of_life/induced_subtree
	ontology:
	  base: http://example.org/phyloref_open_tree_resolver#
	  context: http://www.phyloref.org/phyx.js/context/v0.2.0/phyx.json
	server:
	  addr: :8080
	log:
	  level: info
	  json: false
	http:
	  timeout: 60s

The reasoning algorithm can be "sha1" or "sha256". The TNRS batch is the
number of names sent in each request, at most 999. If the list of TNRS flags
is empty, a match with any flag is discarded; otherwise only matches with one
of the listed flags are discarded.

Each value can be replaced with an environment variable:

	OTRESOLVER_REASONING_URL
	OTRESOLVER_REASONING_SECRET
	OTRESOLVER_REASONING_ALGORITHM
	OTRESOLVER_TNRS_URL
	OTRESOLVER_TNRS_CONTEXT
	OTRESOLVER_TNRS_APPROXIMATE
	OTRESOLVER_TNRS_BATCH
	OTRESOLVER_TNRS_FLAGS (comma separated)
	OTRESOLVER_SUBTREE_URL
	OTRESOLVER_SUBTREE_FALLBACK
	OTRESOLVER_ONTOLOGY_BASE
	OTRESOLVER_ONTOLOGY_CONTEXT
	OTRESOLVER_ADDR
	OTRESOLVER_LOG_LEVEL
	OTRESOLVER_HTTP_TIMEOUT
	`,
}
