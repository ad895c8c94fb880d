// Copyright © 2023 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package view implements the web view
// of a curation session.
//
// The view renders the phyloreference table,
// the phylogeny,
// and the controls that bind the user actions
// to the resolver.
// Open pages are notified of each change of the session
// through a websocket.
package view

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/js-arias/otresolver/curation"
	"github.com/js-arias/otresolver/metric"
	"github.com/js-arias/otresolver/newick"
	"github.com/js-arias/otresolver/phyloref"
	"github.com/js-arias/otresolver/reasoner"
	"github.com/js-arias/otresolver/session"
	"github.com/js-arias/otresolver/subtree"
	"github.com/js-arias/otresolver/treeplot"
	"golang.org/x/exp/slices"
)

// Version is the version of the resolver.
const Version = "0.1.0"

// maxUpload is the maximum size of an uploaded JSON-LD file.
const maxUpload = 32 << 20

//go:embed templates/*.html
var templates embed.FS

// Server is the web view of a resolver.
type Server struct {
	res     *curation.Resolver
	metrics *metric.Metrics
	logger  *slog.Logger
	tmpl    *template.Template

	upgrader websocket.Upgrader

	mu      sync.Mutex
	message string
}

// New returns a web view for a resolver.
// Metrics can be nil.
func New(res *curation.Resolver, m *metric.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		res:     res,
		metrics: m,
		logger:  logger,
		tmpl:    template.Must(template.ParseFS(templates, "templates/*.html")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the HTTP handler of the view.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("GET /about", s.about)
	mux.HandleFunc("GET /download", s.download)
	mux.HandleFunc("GET /tree.svg", s.tree)
	mux.HandleFunc("GET /events", s.events)
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /newick", s.action(s.setNewick))
	mux.HandleFunc("POST /import", s.action(s.importFile))
	mux.HandleFunc("POST /import-url", s.action(s.importURL))
	mux.HandleFunc("POST /example", s.action(s.example))
	mux.HandleFunc("POST /clear", s.action(s.clear))
	mux.HandleFunc("POST /tnrs", s.action(s.queryTaxonomy))
	mux.HandleFunc("POST /subtree", s.action(s.fetchSubtree))
	mux.HandleFunc("POST /reason", s.action(s.reason))
	return mux
}

// action wraps a user action.
// A failed action is shown as a message
// in the next rendered page.
func (s *Server) action(fn func(r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r); err != nil {
			s.logger.Warn("view: action", "path", r.URL.Path, "err", err)
			s.setMessage(err.Error())
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (s *Server) setMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = msg
}

func (s *Server) popMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.message
	s.message = ""
	return msg
}

type unknownID struct {
	ID     string
	Reason string
}

type page struct {
	Version   string
	Message   string
	Seq       uint64
	Groups    []Group
	Newick    string
	Errors    []newick.ParseError
	Unmatched []string
	Unknown   []unknownID
	Examples  []phyloref.ExampleFile
	Reasoning bool
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	st := s.res.State
	nwk := st.Newick()
	_, errs := newick.Parse(nwk)

	p := page{
		Version:   Version,
		Message:   s.popMessage(),
		Seq:       st.Seq(),
		Groups:    Table(st),
		Newick:    nwk,
		Errors:    newick.UserErrors(errs),
		Unmatched: st.Unmatched(),
		Examples:  phyloref.Examples(),
		Reasoning: s.res.Reasoner.InProgress(),
	}
	for id, reason := range st.Unknown() {
		p.Unknown = append(p.Unknown, unknownID{ID: id, Reason: reason})
	}
	slices.SortFunc(p.Unknown, func(a, b unknownID) int {
		return strings.Compare(a.ID, b.ID)
	})
	s.render(w, "index.html", p)
}

func (s *Server) about(w http.ResponseWriter, r *http.Request) {
	s.render(w, "about.html", page{Version: Version})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("view: render", "template", name, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	b, err := s.res.Ontology()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="download.jsonld"`)
	w.Write(b)
}

func (s *Server) tree(w http.ResponseWriter, r *http.Request) {
	st := s.res.State
	t, _ := newick.Parse(st.Newick())
	clades := treeplot.Clades(st.Phylorefs(), st.Results(), st.Index())

	var buf bytes.Buffer
	if err := treeplot.New(t, clades).WriteSVG(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

func (s *Server) setNewick(r *http.Request) error {
	s.res.State.SetNewick(r.FormValue("newick"))
	return nil
}

func (s *Server) importFile(r *http.Request) error {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return err
	}
	f, h, err := r.FormFile("file")
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = s.res.ImportData(f, h.Filename)
	return err
}

func (s *Server) importURL(r *http.Request) error {
	src := strings.TrimSpace(r.FormValue("url"))
	if src == "" {
		return errors.New("no URL entered")
	}
	_, err := s.res.Import(r.Context(), src)
	return err
}

func (s *Server) example(r *http.Request) error {
	_, err := s.res.Example(r.FormValue("name"))
	return err
}

func (s *Server) clear(r *http.Request) error {
	s.res.State.Clear()
	return nil
}

// Remote calls are detached from the request
// so a closed page does not cancel them.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// queryTaxonomy and fetchSubtree only log failures,
// they are never shown in the page.
func (s *Server) queryTaxonomy(r *http.Request) error {
	if err := s.res.QueryTaxonomy(detach(r)); err != nil {
		s.logger.Warn("view: taxonomy query", "err", err)
	}
	return nil
}

func (s *Server) fetchSubtree(r *http.Request) error {
	out := s.res.FetchSubtree(detach(r))
	if out.State == subtree.Failed {
		s.logger.Warn("view: induced subtree", "err", out.Err)
	}
	return nil
}

func (s *Server) reason(r *http.Request) error {
	_, err := s.res.Reason(detach(r))
	if errors.Is(err, reasoner.ErrInProgress) {
		return nil
	}
	return err
}

// events sends each change of the session
// to a websocket client.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("view: websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	changes := make(chan session.Change, 16)
	cancel := s.res.State.Subscribe(func(c session.Change) {
		select {
		case changes <- c:
		default:
			// slow client, the page reloads on any later change
		}
	})
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case c := <-changes:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(c); err != nil {
				return
			}
		}
	}
}
