package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	"github.com/jrsteele09/resumeforge-web/auth"
	"github.com/jrsteele09/resumeforge-web/auth/flowrepo"
	"github.com/jrsteele09/resumeforge-web/checkout"
	"github.com/jrsteele09/resumeforge-web/feature"
	"github.com/jrsteele09/resumeforge-web/guard"
	"github.com/jrsteele09/resumeforge-web/internal/config"
	"github.com/jrsteele09/resumeforge-web/session"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config

	sealer        *session.Sealer
	cookieOptions session.CookieOptions

	api        *apiclient.Client
	auth       *auth.Service
	protected  *guard.Protected
	publicOnly *guard.PublicOnly
	runner     *feature.Runner
	bridge     *checkout.Bridge
	scripts    *checkout.ScriptLoader
	limiter    *ipRateLimiter // nil when rate limiting is disabled

	googleHTTPClient *http.Client
}

// Option defines a function type to modify the Server instance.
type Option func(*Server)

// WithAPIClient replaces the backend client built from configuration
func WithAPIClient(c *apiclient.Client) Option {
	return func(s *Server) {
		s.api = c
	}
}

// WithGoogleHTTPClient sets the client used to talk to the Google identity provider
func WithGoogleHTTPClient(c *http.Client) Option {
	return func(s *Server) {
		s.googleHTTPClient = c
	}
}

func New(config config.Config, options ...Option) (*Server, error) {
	sealer, err := session.NewSealer(config.GetSessionSecret())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create cookie sealer: %w", err)
	}

	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		sealer: sealer,
		cookieOptions: session.CookieOptions{
			MaxAge: config.GetSessionMaxAge(),
			Secure: strings.HasPrefix(config.GetBaseURL(), "https://"),
		},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.api == nil {
		s.api = apiclient.New(config.GetAPIBaseURL(), config.GetAPIVersion(), config.GetAPITimeout())
	}

	var authOptions []auth.ServiceOption
	if config.GoogleSignInEnabled() {
		var googleOptions []auth.GoogleFlowOption
		if s.googleHTTPClient != nil {
			googleOptions = append(googleOptions, auth.WithGoogleHTTPClient(s.googleHTTPClient))
		}
		google := auth.NewGoogleFlow(auth.GoogleConfig{
			ClientID:     config.GetGoogleClientID(),
			ClientSecret: config.GetGoogleClientSecret(),
			Issuer:       config.GetGoogleIssuer(),
			RedirectURL:  config.GetBaseURL() + RouteGoogleCallback,
		}, flowrepo.NewInMemoryRepo(flowrepo.DefaultTTL), googleOptions...)
		authOptions = append(authOptions, auth.WithGoogle(google))
	}
	s.auth = auth.NewService(s.api, authOptions...)

	s.protected = guard.NewProtected(s.api, guard.WithTransitionHook(logTransition))
	s.publicOnly = guard.NewPublicOnly(RouteDashboard)
	s.runner = feature.NewRunner(feature.NewGate(s.api))

	s.scripts = checkout.NewScriptLoader(config.GetRazorpayScriptURL())
	razorpay := checkout.NewRazorpay(config.GetRazorpayKeyID(), s.scripts, RouteVendorRazorpay, RoutePaymentCallback,
		checkout.WithMerchantName(config.GetAppName()))
	s.bridge = checkout.NewBridge(s.api, checkout.NewRegistry(razorpay, checkout.NewStripe()))

	if config.GetEnableRateLimiting() {
		rps, burst := config.GetRateLimit()
		s.limiter = newIPRateLimiter(rps, burst)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

// PreloadCheckout fetches the configured payment SDK ahead of the first
// checkout. A failure is only logged; Start retries the load.
func (s *Server) PreloadCheckout(ctx context.Context) {
	if !strings.EqualFold(s.config.GetPaymentGateway(), checkout.GatewayRazorpay) {
		return
	}
	if err := s.scripts.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("payment script preload failed")
		return
	}
	log.Info().Msg("payment script preloaded")
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDev {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	fmt.Println(FormatRoute(method, path))
}

// FormatRoute renders one route line with a coloured method column
func FormatRoute(method, path string) string {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	return fmt.Sprintf("[%-19s] %s", displayMethod, path)
}

func logTransition(t guard.Transition) {
	event := log.Debug()
	if t.To == guard.Invalid {
		event = log.Info()
	}
	event.Str("from", t.From.String()).Str("to", t.To.String()).Str("reason", t.Reason).Msg("session guard")
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
