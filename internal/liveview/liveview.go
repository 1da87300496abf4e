package liveview

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/timzifer/crowdmon/internal/dashboard"
	"github.com/timzifer/crowdmon/internal/surface"
)

// DefaultListen is the live view address when none is configured.
const DefaultListen = ":18080"

// Server serves the display surface over HTTP.
type Server struct {
	logger zerolog.Logger
	handle *dashboard.Handle
	doc    *surface.Document
	cards  []surface.Card
	mux    *http.ServeMux
	server *http.Server
	ln     net.Listener
}

type surfaceResponse struct {
	Elements []surface.Element `json:"elements"`
}

type cardView struct {
	Title       string
	Card        elementView
	Level       elementView
	Time        elementView
	Description string
	Source      string
	Sensors     []elementView
}

type elementView struct {
	ID    string
	Class string
	Text  string
	Title string
}

func viewOf(el surface.Element) elementView {
	return elementView{ID: el.ID, Class: el.ClassName(), Text: el.Text, Title: el.Title}
}

// New builds the handler. gatherer may be nil to disable /metrics.
func New(handle *dashboard.Handle, doc *surface.Document, cards []surface.Card, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	s := &Server{
		logger: logger.With().Str("component", "liveview").Logger(),
		handle: handle,
		doc:    doc,
		cards:  cards,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/api/surface", s.handleSurface)
	s.mux.HandleFunc("/api/state", s.handleState)
	if gatherer != nil {
		s.mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Start listens on listen and serves in the background.
func (s *Server) Start(listen string) error {
	if strings.TrimSpace(listen) == "" {
		listen = DefaultListen
	}
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 5 * time.Second}
	s.server = srv
	s.ln = ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("live view server stopped")
		}
	}()

	s.logger.Info().Str("listen", ln.Addr().String()).Msg("live view started")
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s == nil || s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Close shuts the server down.
func (s *Server) Close() {
	if s == nil || s.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error().Err(err).Msg("shutdown live view")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, s.cardViews()); err != nil {
		s.logger.Error().Err(err).Msg("render live view page")
	}
}

func (s *Server) cardViews() []cardView {
	views := make([]cardView, 0, len(s.cards))
	for _, card := range s.cards {
		cardEl, ok := s.doc.Element(surface.CardID(card.Number))
		if !ok {
			continue
		}
		level, _ := s.doc.Element(surface.LevelID(card.Number))
		updated, _ := s.doc.Element(surface.TimeID(card.Number))
		view := cardView{
			Title:       card.Title,
			Card:        viewOf(cardEl),
			Level:       viewOf(level),
			Time:        viewOf(updated),
			Description: cardEl.Data["description"],
			Source:      cardEl.Data["source"],
		}
		for _, sensor := range card.Sensors {
			el, ok := s.doc.Element(surface.SensorID(card.Number, sensor))
			if !ok {
				continue
			}
			sv := viewOf(el)
			sv.Text = strings.ToUpper(sensor)
			view.Sensors = append(view.Sensors, sv)
		}
		views = append(views, view)
	}
	return views
}

func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, surfaceResponse{Elements: s.doc.Snapshot()})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.handle.Snapshot())
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encode live view response")
	}
}

var pageTemplate = template.Must(template.New("liveview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Train Crowd Monitor</title>
<style>
body { font-family: Arial, sans-serif; margin: 2rem; background: #f4f6f8; color: #222; }
h1 { margin-bottom: 1.5rem; }
.cards { display: flex; flex-wrap: wrap; gap: 1rem; }
.compartment-card { width: 16rem; padding: 1rem; border-radius: 8px; background: #fff; box-shadow: 0 2px 4px rgba(0,0,0,0.1); border-top: 6px solid #9e9e9e; }
.compartment-card.green { border-top-color: #2e7d32; }
.compartment-card.yellow { border-top-color: #f9a825; }
.compartment-card.red { border-top-color: #c62828; }
.crowd-level { font-size: 1.3rem; font-weight: bold; margin: 0.5rem 0; }
.description { font-size: 0.9rem; color: #555; }
.sensors { display: flex; gap: 0.5rem; margin: 0.75rem 0; }
.sensor-indicator { padding: 0.25rem 0.5rem; border-radius: 4px; background: #e0e0e0; font-size: 0.8rem; }
.sensor-indicator.active { background: #ff7043; color: #fff; }
.updated { font-size: 0.8rem; color: #777; }
</style>
</head>
<body>
<h1>Train Crowd Monitor</h1>
<div class="cards">
{{range .}}<div id="{{.Card.ID}}" class="{{.Card.Class}}" data-description="{{.Description}}" data-source="{{.Source}}">
<h2>{{.Title}}</h2>
<div id="{{.Level.ID}}" class="{{.Level.Class}}">{{.Level.Text}}</div>
<div class="description">{{.Description}}</div>
<div class="sensors">
{{range .Sensors}}<span id="{{.ID}}" class="{{.Class}}" title="{{.Title}}">{{.Text}}</span>
{{end}}</div>
<div id="{{.Time.ID}}" class="{{.Time.Class}}">{{.Time.Text}}</div>
</div>
{{end}}</div>
<script>
async function refresh() {
  try {
    const resp = await fetch('/api/surface');
    if (!resp.ok) { return; }
    const body = await resp.json();
    for (const el of body.elements || []) {
      const node = document.getElementById(el.id);
      if (!node) { continue; }
      node.className = (el.classes || []).join(' ');
      if (el.text !== undefined) { node.textContent = el.text; }
      if (el.title !== undefined) { node.title = el.title; }
      for (const [key, value] of Object.entries(el.data || {})) {
        node.dataset[key] = value;
        if (key === 'description') {
          const desc = node.querySelector('.description');
          if (desc) { desc.textContent = value; }
        }
      }
    }
  } catch (err) {
    console.error('refresh failed', err);
  }
}
setInterval(refresh, 2000);
</script>
</body>
</html>
`))
