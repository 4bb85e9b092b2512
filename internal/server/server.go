// Package server exposes the published snapshot as iCalendar feeds over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"ianua-caldav/internal/event"
	"ianua-caldav/internal/filter"
	"ianua-caldav/internal/ics"
	"ianua-caldav/internal/logger"
	"ianua-caldav/internal/metrics"
	"ianua-caldav/internal/publish"
	"ianua-caldav/internal/refresh"
)

// contentTypeICS is the media type for served calendar feeds.
const contentTypeICS = "text/calendar; charset=utf-8"

// Server serves calendar feeds built from the currently published snapshot.
type Server struct {
	pub          *publish.Publisher
	runner       *refresh.Runner
	metrics      *metrics.Metrics
	calendarName string
	loc          *time.Location
	mux          *http.ServeMux
}

// New constructs a Server. runner may be nil, in which case the refresh
// endpoint reports the feature unavailable. loc resolves dates in feed
// filter parameters.
func New(pub *publish.Publisher, runner *refresh.Runner, m *metrics.Metrics, calendarName string, loc *time.Location) *Server {
	if loc == nil {
		loc = time.UTC
	}
	s := &Server{
		pub:          pub,
		runner:       runner,
		metrics:      m,
		calendarName: calendarName,
		loc:          loc,
		mux:          http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /calendar.ics", s.handleCalendar)
	s.mux.HandleFunc("GET /calendar/{file}", s.handleSubCalendar)
	s.mux.HandleFunc("GET /calendars", s.handleIndex)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
}

// snapshot returns the current snapshot or writes a 503 and returns nil.
func (s *Server) snapshot(w http.ResponseWriter) *event.Snapshot {
	snap, err := s.pub.Current()
	if err != nil {
		if errors.Is(err, publish.ErrNotReady) {
			s.writeFeedError(w, http.StatusServiceUnavailable, "no snapshot available yet, try again shortly")
			return nil
		}
		s.writeFeedError(w, http.StatusInternalServerError, "snapshot unavailable")
		return nil
	}
	return snap
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	f, err := filter.FromQuery(r.URL.Query(), s.loc)
	if err != nil {
		s.writeFeedError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.snapshot(w)
	if snap == nil {
		return
	}
	if f.IsEmpty() {
		s.writeFeed(w, ics.Encode(snap, s.calendarName))
		return
	}
	s.writeFeed(w, ics.EncodeSubset(snap, s.calendarName, f.Apply(snap.Events)))
}

func (s *Server) handleSubCalendar(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	slug, ok := strings.CutSuffix(file, ".ics")
	if !ok || slug == "" {
		s.writeFeedError(w, http.StatusNotFound, "not found")
		return
	}

	f, err := filter.FromQuery(r.URL.Query(), s.loc)
	if err != nil {
		s.writeFeedError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap := s.snapshot(w)
	if snap == nil {
		return
	}

	for _, name := range snap.Calendars() {
		if filter.Slugify(name) == slug {
			s.writeFeed(w, ics.EncodeSubset(snap, name, f.Apply(snap.ByCalendar(name))))
			return
		}
	}
	s.writeFeedError(w, http.StatusNotFound, fmt.Sprintf("no calendar matches %q", slug))
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
<ul>
<li><a href="/calendar.ics">All lectures</a></li>
{{- range .Calendars}}
<li><a href="/calendar/{{.Slug}}.ics">{{.Name}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

type indexEntry struct {
	Name string
	Slug string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap, err := s.pub.Current()
	if err != nil {
		http.Error(w, "no snapshot available yet, try again shortly", http.StatusServiceUnavailable)
		s.metrics.ObserveFeedRequest(http.StatusServiceUnavailable)
		return
	}

	names := snap.Calendars()
	entries := make([]indexEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, indexEntry{Name: name, Slug: filter.Slugify(name)})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		Title     string
		Calendars []indexEntry
	}{Title: s.calendarName, Calendars: entries}
	if err := indexTemplate.Execute(w, data); err != nil {
		logger.Error("rendering calendar index failed", nil, err)
	}
	s.metrics.ObserveFeedRequest(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		http.Error(w, "refresh not available", http.StatusNotImplemented)
		return
	}
	// The cycle outlives the request, so it must not inherit the request
	// context.
	if err := s.runner.Start(context.Background()); err != nil {
		http.Error(w, "refresh already running", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("refresh started\n"))
}

func (s *Server) writeFeed(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", contentTypeICS)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
	s.metrics.ObserveFeedRequest(http.StatusOK)
}

func (s *Server) writeFeedError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
	s.metrics.ObserveFeedRequest(status)
}
