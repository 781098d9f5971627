package server

import (
	"net/http"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	"github.com/jrsteele09/resumeforge-web/auth"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Page
	Email         string // Preserve email on error
	Next          string // Where to go after signing in
	GoogleEnabled bool
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := LoginPageData{
			Page:          s.newPage(r, "Sign in"),
			Email:         r.URL.Query().Get("email"),
			Next:          auth.SafeReturnPath(r.URL.Query().Get("next"), ""),
			GoogleEnabled: s.auth.GoogleEnabled(),
		}
		render(w, r, loginTmpl, http.StatusOK, data)
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		email := r.FormValue("email")
		next := auth.SafeReturnPath(r.FormValue("next"), RouteDashboard)

		_, err := s.auth.Login(r.Context(), storeFrom(r), auth.LoginParameters{
			Email:    email,
			Password: r.FormValue("password"),
		})
		if err != nil {
			s.renderLoginError(w, r, formErrorMessage(err), email)
			return
		}

		redirectSuccess(w, r, next)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.auth.Logout(storeFrom(r)) // Navigates to the login page
		navigate(w, r, RouteLogin)
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, email string) {
	redirectURL := withQuery(RouteLogin, "error", errorMsg)
	if email != "" {
		redirectURL = withQuery(redirectURL, "email", email)
	}

	redirectSuccess(w, r, redirectURL)
}

// formErrorMessage turns an auth flow error into text for the form
func formErrorMessage(err error) string {
	var inputErr *auth.InputError
	if apperrors.As(err, &inputErr) {
		return inputErr.Err.Error()
	}
	var apiErr *apiclient.Error
	if apperrors.As(err, &apiErr) {
		return apiclient.UserMessage(err)
	}
	log.Warn().Err(err).Msg("auth flow failed")
	return "Something went wrong. Please try again."
}
