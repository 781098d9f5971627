package server

import (
	"encoding/json"
	"net/http"
)

// IndexHandler renders the home page
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tmpl, http.StatusOK, s.newPage(r, "Home"))
	}
}

// HealthzHandler reports liveness. It does not call the backend.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// DashboardPageData lists the tools for the signed-in landing page
type DashboardPageData struct {
	Page
	Tools []tool
}

// DashboardHandler renders the signed-in landing page
func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tmpl, http.StatusOK, DashboardPageData{
			Page:  s.newPage(r, "Dashboard"),
			Tools: s.tools(),
		})
	}
}
