package httpapi

import (
	"net/http"
	"time"
)

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	now := s.clock.Now()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"timestamp": now.UTC().Format(time.RFC3339),
		"uptime":    now.Sub(s.started).Seconds(),
	})
}

func (s *HTTPServer) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"success": false,
		"error":   errRouteMissing.code,
		"message": errRouteMissing.message,
		"path":    r.URL.Path,
	})
}

func (s *HTTPServer) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeAPIError(w, errMethod)
}
