package api

import (
	"net/http"
	"os"

	"tde/internal/version"
)

// healthResponse is the /health payload
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}
	WriteJSON(w, healthResponse{Status: "ok", Version: version.Info()}, http.StatusOK)
}

// handleReady reports whether the engine can actually serve: the project
// root must exist and be readable
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowed(w)
		return
	}

	root := s.engine.ProjectRoot()
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		WriteJSON(w, map[string]string{
			"status": "not ready",
			"reason": "project root unavailable: " + root,
		}, http.StatusServiceUnavailable)
		return
	}
	WriteJSON(w, map[string]string{"status": "ready"}, http.StatusOK)
}
