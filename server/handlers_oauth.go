package server

import (
	"net/http"

	"github.com/jrsteele09/resumeforge-web/auth"
	"github.com/rs/zerolog/log"
)

// GoogleLoginHandler starts Google sign-in (GET /auth/google)
func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.auth.GoogleEnabled() {
			redirectWithError(w, r, RouteLogin, auth.GoogleSignInDisabledErr.Error())
			return
		}

		returnURL := auth.SafeReturnPath(r.URL.Query().Get("next"), RouteDashboard)
		authURL, err := s.auth.BeginGoogleLogin(r.Context(), returnURL)
		if err != nil {
			log.Err(err).Msg("Failed to start Google sign-in")
			redirectWithError(w, r, RouteLogin, "Google sign-in is unavailable right now")
			return
		}
		redirectSuccess(w, r, authURL)
	}
}

// GoogleCallbackHandler completes Google sign-in (GET /auth/google/callback)
func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if providerErr := query.Get("error"); providerErr != "" {
			log.Info().Str("error", providerErr).Msg("Google sign-in cancelled")
			redirectWithError(w, r, RouteLogin, "Google sign-in was cancelled")
			return
		}

		state := query.Get("state")
		if err := auth.ValidateState(state); err != nil {
			redirectWithError(w, r, RouteLogin, "Google sign-in failed, please try again")
			return
		}

		_, returnURL, err := s.auth.CompleteGoogleLogin(r.Context(), storeFrom(r), state, query.Get("code"))
		if err != nil {
			log.Warn().Err(err).Msg("Google sign-in failed")
			redirectWithError(w, r, RouteLogin, "Google sign-in failed, please try again")
			return
		}
		redirectSuccess(w, r, auth.SafeReturnPath(returnURL, RouteDashboard))
	}
}
