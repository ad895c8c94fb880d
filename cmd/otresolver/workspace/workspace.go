// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package workspace opens the curation session
// of a project file
// for the otresolver commands.
package workspace

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/js-arias/otresolver/config"
	"github.com/js-arias/otresolver/curation"
	"github.com/js-arias/otresolver/logging"
	"github.com/js-arias/otresolver/metric"
	"github.com/js-arias/otresolver/project"
	"github.com/js-arias/otresolver/session"
)

// DefaultConfig is the default configuration file.
const DefaultConfig = "otresolver.yaml"

// Config reads the configuration
// and sets the default logger.
func Config() (config.Config, error) {
	name := os.Getenv("OTRESOLVER_CONFIG")
	if name == "" {
		name = DefaultConfig
	}
	cfg, err := config.Load(name)
	if err != nil {
		return cfg, err
	}
	logging.Init(cfg.Log.JSON, logging.ParseLevel(cfg.Log.Level))
	return cfg, nil
}

// Open reads a project and its session.
// If the project file does not exist,
// a new project with an empty session is returned.
func Open(name string) (*project.Project, *session.State, error) {
	p, err := project.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open project %q: %v", name, err)
	}
	st, err := p.Session()
	if err != nil {
		return nil, nil, fmt.Errorf("on project %q: %v", name, err)
	}
	return p, st, nil
}

// Resolver opens a project
// and returns a resolver for its session.
// Metrics can be nil.
func Resolver(name string, m *metric.Metrics) (*project.Project, *curation.Resolver, error) {
	cfg, err := Config()
	if err != nil {
		return nil, nil, err
	}
	p, st, err := Open(name)
	if err != nil {
		return nil, nil, err
	}
	return p, curation.New(cfg, st, m, slog.Default()), nil
}
