package server

import (
	"net/http"

	"github.com/jrsteele09/resumeforge-web/auth"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
)

// ProfileGetHandler renders the profile form
func (s *Server) ProfileGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("profile.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tmpl, http.StatusOK, s.newPage(r, "Profile"))
	}
}

// ProfilePostHandler saves profile edits to the backend and the session
func (s *Server) ProfilePostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		_, err := s.auth.UpdateProfile(r.Context(), storeFrom(r), auth.ProfileParameters{
			Name:   r.FormValue("name"),
			Avatar: r.FormValue("avatar"),
		})
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			return // Signed out by the client
		}
		if err != nil {
			redirectWithError(w, r, RouteProfile, formErrorMessage(err))
			return
		}
		redirectWithNotice(w, r, RouteProfile, "Profile saved")
	}
}
