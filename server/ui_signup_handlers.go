package server

import (
	"net/http"

	"github.com/jrsteele09/resumeforge-web/auth"
)

// SignupPageData contains data for rendering the signup page
type SignupPageData struct {
	Page
	Name          string
	Email         string
	GoogleEnabled bool
}

// SignupGetHandler renders the signup page
func (s *Server) SignupGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("signup.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tmpl, http.StatusOK, SignupPageData{
			Page:          s.newPage(r, "Create account"),
			Name:          r.URL.Query().Get("name"),
			Email:         r.URL.Query().Get("email"),
			GoogleEnabled: s.auth.GoogleEnabled(),
		})
	}
}

// SignupPostHandler handles registration form submission
func (s *Server) SignupPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		params := auth.SignupParameters{
			Name:            r.FormValue("name"),
			Email:           r.FormValue("email"),
			Password:        r.FormValue("password"),
			ConfirmPassword: r.FormValue("confirm_password"),
		}
		if _, err := s.auth.Signup(r.Context(), storeFrom(r), params); err != nil {
			redirectURL := withQuery(RouteSignup, "error", formErrorMessage(err))
			redirectURL = withQuery(redirectURL, "name", params.Name)
			redirectURL = withQuery(redirectURL, "email", params.Email)
			redirectSuccess(w, r, redirectURL)
			return
		}

		redirectWithNotice(w, r, RouteDashboard, "Welcome! Your account is ready.")
	}
}

// ForgotPasswordGetHandler renders the forgot-password page
func (s *Server) ForgotPasswordGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("forgot_password.html")

	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, tmpl, http.StatusOK, s.newPage(r, "Reset password"))
	}
}

// ForgotPasswordPostHandler asks the backend to email a reset link. The
// confirmation is the same whether or not the address has an account.
func (s *Server) ForgotPasswordPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		if err := s.auth.ForgotPassword(r.Context(), r.FormValue("email")); err != nil {
			redirectWithError(w, r, RouteForgotPassword, formErrorMessage(err))
			return
		}
		redirectWithNotice(w, r, RouteForgotPassword, "If an account exists for that address, a reset link is on its way.")
	}
}
