package ui

import (
	"encoding/json"
	"net/http"

	"evdash/internal/errors"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// apiRouter serves the JSON API; it is mounted under /api
func (s *Server) apiRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/summary", s.apiSummary)
	r.Get("/observations", s.apiObservations)
	r.Get("/timeline", s.apiTimeline)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errors.NotFound("endpoint "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed", "code": errors.CodeInvalidInput})
	})
	return r
}

func (s *Server) apiSummary(w http.ResponseWriter, r *http.Request) {
	_, rep, err := s.service.Analyze(r.Context(), s.currentSource())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) apiObservations(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Load(r.Context(), s.currentSource())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) apiTimeline(w http.ResponseWriter, r *http.Request) {
	_, rep, err := s.service.Analyze(r.Context(), s.currentSource())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"points": rep.Timeline})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}
