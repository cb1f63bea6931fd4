package server

import (
	"context"
	"encoding/json"
	"expvar"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes mounts the websocket endpoint, screen administration, health and metrics.
func (s *SelectServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.handleWebSocket)
	r.Get("/healthz", healthz)
	r.Handle("/metrics", s.monitor.Handler())
	r.Handle("/debug/vars", expvar.Handler())

	r.Route("/screens", func(r chi.Router) {
		r.Get("/", s.listScreens)
		r.Post("/", s.postScreen)
		r.Get("/{id}", s.getScreen)
		r.Delete("/{id}", s.deleteScreen)
	})
	r.Put("/joining", s.putJoining)
	return r
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *SelectServer) listScreens(w http.ResponseWriter, r *http.Request) {
	ids := []string{}
	for _, sc := range s.screens.Screens() {
		ids = append(ids, sc.ID)
	}
	writeJSON(w, http.StatusOK, struct {
		Screens []string `json:"screens"`
		Default string   `json:"default"`
	}{Screens: ids, Default: s.defaultScreen})
}

func (s *SelectServer) postScreen(w http.ResponseWriter, r *http.Request) {
	sc, err := s.createScreen()
	if err != nil {
		http.Error(w, "failed to create screen", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		ID string `json:"id"`
	}{ID: sc.ID})
}

func (s *SelectServer) getScreen(w http.ResponseWriter, r *http.Request) {
	sc, ok := s.screens.GetScreen(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "screen not found", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	v, err := sc.View(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *SelectServer) deleteScreen(w http.ResponseWriter, r *http.Request) {
	if !s.removeScreen(chi.URLParam(r, "id")) {
		http.Error(w, "screen not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *SelectServer) putJoining(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Enabled {
		s.joins.EnableJoining()
	} else {
		s.joins.DisableJoining()
	}
	writeJSON(w, http.StatusOK, struct {
		Joining bool `json:"joining"`
	}{Joining: s.joins.Joining()})
}
