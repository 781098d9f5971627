// Package guard decides whether a navigation may enter an area of the site.
//
// Protected gates authenticated-only pages. It never trusts the presence of a
// token alone: a token that is not obviously expired is verified against the
// backend exactly once per evaluation. PublicOnly is the cheap inverse, used
// for the login and signup pages.
package guard

import (
	"context"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	"github.com/jrsteele09/resumeforge-web/session"
	"github.com/jrsteele09/resumeforge-web/token"
	"github.com/rs/zerolog/log"
)

// State is the position of one evaluation in the guard state machine
type State int

const (
	Unknown State = iota
	Verifying
	Valid
	Invalid
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case Verifying:
		return "verifying"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "state(?)"
	}
}

// Reasons an evaluation ended Invalid
const (
	ReasonNoToken      = "no_token"
	ReasonExpired      = "token_expired"
	ReasonRejected     = "rejected"
	ReasonVerifyFailed = "verify_failed"
	ReasonCancelled    = "cancelled"
	ReasonNoStore      = "no_session_store"
)

// Transition describes one state change of an evaluation
type Transition struct {
	From   State
	To     State
	Reason string
}

// Verifier checks a session with the backend using the token carried by ctx
type Verifier interface {
	VerifySession(ctx context.Context) (*apiclient.VerifyResponse, error)
}

// Protected is the route guard for authenticated-only pages
type Protected struct {
	verifier Verifier
	hooks    []func(Transition)
}

// ProtectedOption defines a function type to modify the Protected instance.
type ProtectedOption func(*Protected)

// WithTransitionHook registers fn to observe every state change
func WithTransitionHook(fn func(Transition)) ProtectedOption {
	return func(g *Protected) {
		g.hooks = append(g.hooks, fn)
	}
}

// NewProtected creates a guard that verifies sessions with verifier
func NewProtected(verifier Verifier, options ...ProtectedOption) *Protected {
	g := &Protected{verifier: verifier}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Evaluate runs one pass of the state machine for the session carried by ctx
// and returns the terminal state, Valid or Invalid. On Invalid the session is
// cleared, which navigates to the login page.
func (g *Protected) Evaluate(ctx context.Context) State {
	store, ok := session.FromContext(ctx)
	if !ok {
		g.transition(Unknown, Invalid, ReasonNoStore)
		return Invalid
	}

	current, authenticated := store.Read()
	if !authenticated {
		return g.invalidate(store, Unknown, ReasonNoToken)
	}
	if token.LocallyExpired(current.Token) {
		return g.invalidate(store, Unknown, ReasonExpired)
	}

	g.transition(Unknown, Verifying, "")
	resp, err := g.verifier.VerifySession(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// The navigation was abandoned; leave the session alone.
			g.transition(Verifying, Invalid, ReasonCancelled)
			return Invalid
		}
		log.Warn().Err(err).Msg("session verification failed")
		return g.invalidate(store, Verifying, ReasonVerifyFailed)
	}
	if !resp.Valid() {
		return g.invalidate(store, Verifying, ReasonRejected)
	}

	g.transition(Verifying, Valid, "")
	return Valid
}

func (g *Protected) invalidate(store *session.Store, from State, reason string) State {
	g.transition(from, Invalid, reason)
	store.Clear()
	return Invalid
}

func (g *Protected) transition(from, to State, reason string) {
	for _, hook := range g.hooks {
		hook(Transition{From: from, To: to, Reason: reason})
	}
}

// PublicOnly keeps signed-in users away from the login and signup pages.
// It only checks token presence; a stale token is caught by Protected or by
// the first backend 401.
type PublicOnly struct {
	landingPath string
}

// NewPublicOnly creates the guard, redirecting signed-in users to landingPath
func NewPublicOnly(landingPath string) *PublicOnly {
	return &PublicOnly{landingPath: landingPath}
}

// Redirect returns where to send the browser, and false when the page may render
func (g *PublicOnly) Redirect(ctx context.Context) (string, bool) {
	store, ok := session.FromContext(ctx)
	if !ok {
		return "", false
	}
	if _, authenticated := store.Read(); authenticated {
		return g.landingPath, true
	}
	return "", false
}
