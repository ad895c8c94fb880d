// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package serve implements a command to run
// the web view of the resolver.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/otresolver/cmd/otresolver/workspace"
	"github.com/js-arias/otresolver/curation"
	"github.com/js-arias/otresolver/metric"
	"github.com/js-arias/otresolver/project"
	"github.com/js-arias/otresolver/session"
	"github.com/js-arias/otresolver/view"
)

var Command = &command.Command{
	Usage: "serve [--addr <address>] [--save] [<project-file>]",
	Short: "run the web view of the resolver",
	Long: `
Command serve runs a web server with the resolver view: a table of the
phyloreferences, the phylogeny, and buttons to import phyloreferences, match
names with the Open Tree Taxonomy, download the induced subtree, and submit
the phyloreferences to the reasoner.

The session is kept in memory. If a project file is given, the session will
start with the data of the project. If the flag --save is defined, the
session will be written back into the project when the server stops.

By default, the server listens at the address defined in the configuration
(":8080" by default). Use the flag --addr to define a different address.

Metrics of the calls to the remote services are available at "/metrics".
	`,
	SetFlags: setFlags,
	Run:      run,
}

var addr string
var save bool

func setFlags(c *command.Command) {
	c.Flags().StringVar(&addr, "addr", "", "")
	c.Flags().BoolVar(&save, "save", false, "")
}

func run(c *command.Command, args []string) error {
	cfg, err := workspace.Config()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}

	var p *project.Project
	st := session.New()
	if len(args) > 0 {
		p, st, err = workspace.Open(args[0])
		if err != nil {
			return err
		}
	} else if save {
		return c.UsageError("flag --save requires a project file")
	}

	m := metric.New()
	res := curation.New(cfg, st, m, slog.Default())
	srv := &http.Server{
		Addr:              addr,
		Handler:           view.New(res, m, slog.Default()).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serve: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			slog.Warn("serve: shutdown", "err", err)
		}
	}

	if save && p != nil {
		if err := p.Save(st); err != nil {
			return fmt.Errorf("while saving project %q: %v", p.Name(), err)
		}
	}
	return nil
}
