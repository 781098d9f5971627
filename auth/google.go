package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/resumeforge-web/auth/flowrepo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// GoogleConfig holds the OAuth client registration for Google sign-in
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	Issuer       string // e.g. https://accounts.google.com
	RedirectURL  string // Absolute URL of the callback route
}

type oidcConfig struct {
	OAuth2Config *oauth2.Config
	Verifier     *oidc.IDTokenVerifier
}

// GoogleFlow runs the OIDC authorization code flow with PKCE against Google
// and yields a verified ID token for the backend to exchange.
type GoogleFlow struct {
	config     GoogleConfig
	flows      flowrepo.Repo
	httpClient *http.Client

	oidcLock sync.RWMutex
	oidc     *oidcConfig
}

// GoogleFlowOption defines a function type to modify the GoogleFlow instance.
type GoogleFlowOption func(*GoogleFlow)

// WithGoogleHTTPClient sets the client used for discovery and code exchange
func WithGoogleHTTPClient(c *http.Client) GoogleFlowOption {
	return func(g *GoogleFlow) {
		g.httpClient = c
	}
}

// NewGoogleFlow creates the flow. Pending sign-ins are kept in flows.
func NewGoogleFlow(config GoogleConfig, flows flowrepo.Repo, options ...GoogleFlowOption) *GoogleFlow {
	g := &GoogleFlow{
		config: config,
		flows:  flows,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Enabled reports whether a client registration is configured
func (g *GoogleFlow) Enabled() bool {
	return g != nil && g.config.ClientID != ""
}

func (g *GoogleFlow) context(ctx context.Context) context.Context {
	if g.httpClient != nil {
		return oidc.ClientContext(ctx, g.httpClient)
	}
	return ctx
}

func (g *GoogleFlow) getOidcConfig(ctx context.Context) (*oidcConfig, error) {
	g.oidcLock.RLock()
	config := g.oidc
	g.oidcLock.RUnlock()
	if config != nil {
		return config, nil
	}

	provider, err := oidc.NewProvider(g.context(ctx), g.config.Issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[getOidcConfig] failed to create OIDC provider")
	}

	config = &oidcConfig{
		OAuth2Config: &oauth2.Config{
			ClientID:     g.config.ClientID,
			ClientSecret: g.config.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  g.config.RedirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		Verifier: provider.Verifier(&oidc.Config{
			ClientID: g.config.ClientID,
		}),
	}

	g.oidcLock.Lock()
	g.oidc = config
	g.oidcLock.Unlock()

	return config, nil
}

// Begin records a new sign-in attempt and returns the Google authorization URL
func (g *GoogleFlow) Begin(ctx context.Context, returnURL string) (string, error) {
	if !g.Enabled() {
		return "", GoogleSignInDisabledErr
	}
	config, err := g.getOidcConfig(ctx)
	if err != nil {
		return "", err
	}

	state := generateRandomString(32)
	nonce := generateRandomString(32)
	verifier := oauth2.GenerateVerifier()

	if err := g.flows.Upsert(state, &flowrepo.FlowState{
		CodeVerifier: verifier,
		Nonce:        nonce,
		ReturnURL:    returnURL,
	}); err != nil {
		return "", errors.Wrap(err, "[Begin] failed to store flow state")
	}

	return config.OAuth2Config.AuthCodeURL(state,
		oidc.Nonce(nonce),
		oauth2.S256ChallengeOption(verifier),
	), nil
}

// Finish exchanges the authorization code and returns the verified raw ID token
// together with the return URL recorded by Begin. A state can be used once.
func (g *GoogleFlow) Finish(ctx context.Context, state, code string) (rawIDToken, returnURL string, err error) {
	if !g.Enabled() {
		return "", "", GoogleSignInDisabledErr
	}
	if err := ValidateState(state); err != nil {
		return "", "", InvalidStateErr
	}
	if code == "" {
		return "", "", errors.New("[Finish] missing authorization code")
	}

	flow, err := g.flows.Get(state)
	if err != nil {
		return "", "", InvalidStateErr
	}
	if err := g.flows.Delete(state); err != nil {
		log.Warn().Err(err).Msg("failed to delete sign-in state")
	}

	config, err := g.getOidcConfig(ctx)
	if err != nil {
		return "", "", err
	}

	oauth2Token, err := config.OAuth2Config.Exchange(g.context(ctx), code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return "", "", errors.Wrap(err, "[Finish] token exchange failed")
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", "", errors.New("[Finish] no id_token in token response")
	}

	idToken, err := config.Verifier.Verify(g.context(ctx), rawIDToken)
	if err != nil {
		return "", "", errors.Wrap(err, "[Finish] id token verification failed")
	}
	if idToken.Nonce != flow.Nonce {
		return "", "", NonceMismatchErr
	}

	return rawIDToken, flow.ReturnURL, nil
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
