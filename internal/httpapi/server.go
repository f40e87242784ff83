// Package httpapi is the optional read-only status surface: run state,
// buffered logs, and the websocket stream. It never mutates the run.
package httpapi

import (
	"encoding/json"
	"net/http"

	"drop_harvester/internal/config"
	"drop_harvester/internal/logbus"
	"drop_harvester/internal/model"
	"drop_harvester/internal/ws"
)

// StateSource is anything that can snapshot the current run.
type StateSource interface {
	State() model.RunState
}

type Options struct {
	Cfg   config.Config
	Bus   *logbus.Bus
	State StateSource
}

type Server struct {
	cfg   config.Config
	bus   *logbus.Bus
	state StateSource
	ws    *ws.Handler
}

func New(opts Options) *Server {
	s := &Server{
		cfg:   opts.Cfg,
		bus:   opts.Bus,
		state: opts.State,
	}
	s.ws = ws.NewHandler(opts.Bus, func() any { return s.state.State() }, opts.Cfg.Server.AllowOrigins)
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/ws", s.ws)

	api := http.NewServeMux()
	api.HandleFunc("/api/v1/state", s.handleState)
	api.HandleFunc("/api/v1/logs", s.handleLogs)

	mux.Handle("/api/", corsMiddleware(s.cfg.Server.AllowOrigins, api))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": s.state.State()})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": s.bus.Snapshot()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
