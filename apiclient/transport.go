package apiclient

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/resumeforge-web/session"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries a per-call identifier for correlating frontend and backend logs
const RequestIDHeader = "X-Request-ID"

// authTransport intercepts every backend call. Before send it attaches the
// bearer token of the session carried by the request context; after receipt
// it clears that session on 401 so the caller's error handling runs against
// a signed-out store. Clearing is idempotent, so concurrent 401s are harmless.
type authTransport struct {
	base http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	store, hasStore := session.FromContext(req.Context())

	req = req.Clone(req.Context())
	authenticated := false
	if hasStore {
		if accessToken := store.Token(); accessToken != "" {
			(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(req)
			authenticated = true
		}
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.New().String())
	}

	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	logger := log.With().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("request_id", req.Header.Get(RequestIDHeader)).
		Dur("duration", time.Since(start)).
		Logger()
	if err != nil {
		logger.Warn().Err(err).Msg("backend call failed")
		return nil, err
	}
	logger.Debug().Int("status", resp.StatusCode).Msg("backend call")

	// A 401 to an unauthenticated call (a wrong password) is not a session rejection.
	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		logger.Info().Msg("backend rejected session, signing out")
		store.Clear()
	}
	return resp, nil
}
