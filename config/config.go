// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package config implements the deployment configuration
// of the resolver.
//
// Values are read from an optional YAML file,
// and each value can be replaced
// by an environment variable.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the configuration of the resolver.
type Config struct {
	Reasoning Reasoning `yaml:"reasoning"`
	TNRS      TNRS      `yaml:"tnrs"`
	Subtree   Subtree   `yaml:"subtree"`
	Ontology  Ontology  `yaml:"ontology"`
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
	HTTP      HTTP      `yaml:"http"`
}

// Reasoning is the configuration of the reasoner.
type Reasoning struct {
	URL       string `yaml:"url"`
	Secret    string `yaml:"secret"`
	Algorithm string `yaml:"algorithm"`
}

// TNRS is the configuration of the name matching service.
type TNRS struct {
	URL         string `yaml:"url"`
	Context     string `yaml:"context"`
	Approximate bool   `yaml:"approximate"`
	Batch       int    `yaml:"batch"`
	InFlight    int    `yaml:"inflight"`

	// Flags are the taxon flags that disqualify a match.
	// If empty, any flag disqualifies a match.
	Flags []string `yaml:"flags"`
}

// Subtree is the configuration of the induced subtree service.
type Subtree struct {
	URL      string `yaml:"url"`
	Fallback string `yaml:"fallback"`
}

// Ontology is the configuration of the assembled documents.
type Ontology struct {
	Base    string   `yaml:"base"`
	Context string   `yaml:"context"`
	Imports []string `yaml:"imports"`
}

// Server is the configuration of the web view.
type Server struct {
	Addr string `yaml:"addr"`
}

// Log is the logging configuration.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// HTTP is the configuration of the HTTP clients.
type HTTP struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Reasoning: Reasoning{
			URL:       "https://phyloref.rc.ufl.edu/hooks/reason",
			Secret:    "undefined",
			Algorithm: "sha1",
		},
		TNRS: TNRS{
			URL:      "https://api.opentreeoflife.org/v3/tnrs/match_names",
			Batch:    999,
			InFlight: 4,
		},
		Subtree: Subtree{
			URL:      "https://ot39.opentreeoflife.org/v3/tree_of_life/induced_subtree",
			Fallback: "https://api.opentreeoflife.org/v3/tree_of_life/induced_subtree",
		},
		Ontology: Ontology{
			Base:    "http://example.org/phyloref_open_tree_resolver#",
			Context: "http://www.phyloref.org/phyx.js/context/v0.2.0/phyx.json",
		},
		Server: Server{Addr: ":8080"},
		Log:    Log{Level: "info"},
		HTTP:   HTTP{Timeout: 60 * time.Second},
	}
}

// Load reads the configuration from a YAML file
// and the environment.
// If the path is empty,
// or the file does not exist,
// only the defaults and the environment are used.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return c, fmt.Errorf("config: %v", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("config: file %q: %v", path, err)
			}
		}
	}
	if err := c.env(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c *Config) env() error {
	getenv(&c.Reasoning.URL, "OTRESOLVER_REASONING_URL")
	getenv(&c.Reasoning.Secret, "OTRESOLVER_REASONING_SECRET")
	getenv(&c.Reasoning.Algorithm, "OTRESOLVER_REASONING_ALGORITHM")
	getenv(&c.TNRS.URL, "OTRESOLVER_TNRS_URL")
	getenv(&c.TNRS.Context, "OTRESOLVER_TNRS_CONTEXT")
	getenv(&c.Subtree.URL, "OTRESOLVER_SUBTREE_URL")
	getenv(&c.Subtree.Fallback, "OTRESOLVER_SUBTREE_FALLBACK")
	getenv(&c.Ontology.Base, "OTRESOLVER_ONTOLOGY_BASE")
	getenv(&c.Ontology.Context, "OTRESOLVER_ONTOLOGY_CONTEXT")
	getenv(&c.Server.Addr, "OTRESOLVER_ADDR")
	getenv(&c.Log.Level, "OTRESOLVER_LOG_LEVEL")

	if v := os.Getenv("OTRESOLVER_TNRS_FLAGS"); v != "" {
		c.TNRS.Flags = strings.Split(v, ",")
	}
	if v := os.Getenv("OTRESOLVER_TNRS_APPROXIMATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: OTRESOLVER_TNRS_APPROXIMATE: %v", err)
		}
		c.TNRS.Approximate = b
	}
	if v := os.Getenv("OTRESOLVER_TNRS_BATCH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: OTRESOLVER_TNRS_BATCH: %v", err)
		}
		c.TNRS.Batch = n
	}
	if v := os.Getenv("OTRESOLVER_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: OTRESOLVER_HTTP_TIMEOUT: %v", err)
		}
		c.HTTP.Timeout = d
	}
	return nil
}

func getenv(v *string, key string) {
	if e := os.Getenv(key); e != "" {
		*v = e
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	switch c.Reasoning.Algorithm {
	case "sha1", "sha256":
	default:
		return fmt.Errorf("config: reasoning.algorithm: unsupported algorithm %q", c.Reasoning.Algorithm)
	}
	if c.TNRS.Batch < 1 || c.TNRS.Batch > 999 {
		return fmt.Errorf("config: tnrs.batch: %d out of range [1, 999]", c.TNRS.Batch)
	}
	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("config: http.timeout: negative timeout %v", c.HTTP.Timeout)
	}
	return nil
}
