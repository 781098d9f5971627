// Package fakebackend is an in-memory stand-in for the AI backend. It speaks
// the same HTTP contract as the real service so the frontend can be run and
// tested end to end without it. Artifacts are canned; quotas, tokens, orders
// and payment signatures behave like the real thing.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/resumeforge-web/token"
	"github.com/jrsteele09/resumeforge-web/users"
	fakeuserrepo "github.com/jrsteele09/resumeforge-web/users/repofake"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPrefix          = "/api/v1"
	DefaultRazorpayKeyID   = "rzp_test_fakebackend"
	DefaultRazorpaySecret  = "fakebackend_razorpay_secret"
	DefaultSigningSecret   = "fakebackend-signing-secret"
	DefaultTokenExpiry     = time.Hour
	RazorpayScriptPath     = "/razorpay/checkout.js"
	razorpaySignPath       = "/razorpay/sign"
	stripeCheckoutPathBase = "/stripe/checkout/"
	unlimited              = -1
)

// Backend is the fake API server
type Backend struct {
	prefix         string
	gateway        string
	razorpayKeyID  string
	razorpaySecret string

	accounts users.AccountRepo
	signer   token.Signer
	creator  *token.Creator

	onRequest func(methodAndPath string) // set by WithRequestHook; may block

	mu        sync.Mutex
	quotas    map[users.PlanTier]map[string]int
	usage     map[string]map[string]int // user id -> feature -> used
	orders    map[string]*order
	revoked   map[string]bool
	signedOut map[string]bool // user ids whose every token is rejected
	calls     map[string]int  // "METHOD /path" -> count

	mux *http.ServeMux
}

type order struct {
	ID      string
	UserID  string
	PlanID  string
	Tier    users.PlanTier
	Amount  int64
	Gateway string
	Paid    bool
}

// Option defines a function type to modify the Backend instance.
type Option func(*Backend)

// WithGateway selects the payment gateway named in new orders ("razorpay" or "stripe")
func WithGateway(gateway string) Option {
	return func(b *Backend) {
		b.gateway = gateway
	}
}

// WithRequestHook calls fn with "METHOD /path" before each request is handled.
// fn may block to hold the request.
func WithRequestHook(fn func(methodAndPath string)) Option {
	return func(b *Backend) {
		b.onRequest = fn
	}
}

// WithPrefix sets the API version prefix
func WithPrefix(prefix string) Option {
	return func(b *Backend) {
		b.prefix = prefix
	}
}

// WithTokenExpiry sets the lifetime of issued bearer tokens
func WithTokenExpiry(d time.Duration) Option {
	return func(b *Backend) {
		b.creator = token.NewCreator(b.signer, "resumeforge-fakebackend", d)
	}
}

// WithQuota sets how many uses of feature a plan allows. -1 means unlimited.
func WithQuota(plan users.PlanTier, feature string, limit int) Option {
	return func(b *Backend) {
		b.quotas[plan][feature] = limit
	}
}

// New creates the fake backend
func New(options ...Option) *Backend {
	signer := token.NewHMACSigner(DefaultSigningSecret)
	b := &Backend{
		prefix:         DefaultPrefix,
		gateway:        "razorpay",
		razorpayKeyID:  DefaultRazorpayKeyID,
		razorpaySecret: DefaultRazorpaySecret,
		accounts:       fakeuserrepo.NewFakeAccountRepo(),
		signer:         signer,
		creator:        token.NewCreator(signer, "resumeforge-fakebackend", DefaultTokenExpiry),
		quotas:         defaultQuotas(),
		usage:          make(map[string]map[string]int),
		orders:         make(map[string]*order),
		revoked:        make(map[string]bool),
		signedOut:      make(map[string]bool),
		calls:          make(map[string]int),
	}
	for _, opt := range options {
		opt(b)
	}
	b.initRoutes()
	return b
}

func defaultQuotas() map[users.PlanTier]map[string]int {
	return map[users.PlanTier]map[string]int{
		users.PlanFree: {
			"ats_using":         3,
			"resume_generation": 2,
			"cover_letter":      2,
			"job_fit":           1,
			"linkedin_profile":  0,
			"template_download": 2,
		},
		users.PlanPro: {
			"ats_using":         50,
			"resume_generation": 30,
			"cover_letter":      30,
			"job_fit":           30,
			"linkedin_profile":  0,
			"template_download": unlimited,
		},
		users.PlanPremium: {
			"ats_using":         unlimited,
			"resume_generation": unlimited,
			"cover_letter":      unlimited,
			"job_fit":           unlimited,
			"linkedin_profile":  unlimited,
			"template_download": unlimited,
		},
	}
}

func (b *Backend) initRoutes() {
	b.mux = http.NewServeMux()
	p := b.prefix

	b.mux.HandleFunc("POST "+p+"/login", b.handleLogin)
	b.mux.HandleFunc("POST "+p+"/signup", b.handleSignup)
	b.mux.HandleFunc("POST "+p+"/auth/google", b.handleGoogle)
	b.mux.HandleFunc("POST "+p+"/forgot-password", b.handleForgotPassword)
	b.mux.HandleFunc("GET "+p+"/auth/verify", b.authenticated(b.handleVerify))
	b.mux.HandleFunc("GET "+p+"/check-feature/{feature}", b.authenticated(b.handleCheckFeature))
	b.mux.HandleFunc("PUT "+p+"/profile", b.authenticated(b.handleUpdateProfile))

	b.mux.HandleFunc("POST "+p+"/subscription/start", b.authenticated(b.handleStartSubscription))
	b.mux.HandleFunc("POST "+p+"/payments/verify", b.authenticated(b.handleVerifyPayment))

	b.mux.HandleFunc("POST "+p+"/ats/check", b.authenticated(b.handleATS))
	b.mux.HandleFunc("POST "+p+"/resume/generate", b.authenticated(b.generator("resume_generation", resumeArtifact)))
	b.mux.HandleFunc("POST "+p+"/cover-letter/generate", b.authenticated(b.generator("cover_letter", coverLetterArtifact)))
	b.mux.HandleFunc("POST "+p+"/job-fit/analyze", b.authenticated(b.generator("job_fit", jobFitArtifact)))
	b.mux.HandleFunc("POST "+p+"/linkedin/generate", b.authenticated(b.generator("linkedin_profile", linkedInArtifact)))
	b.mux.HandleFunc("GET "+p+"/templates", b.authenticated(b.handleListTemplates))
	b.mux.HandleFunc("GET "+p+"/templates/{id}/download", b.authenticated(b.handleDownloadTemplate))

	b.mux.HandleFunc("GET "+RazorpayScriptPath, b.handleRazorpayScript)
	b.mux.HandleFunc("GET "+razorpaySignPath, b.handleRazorpaySign)
	b.mux.HandleFunc("GET "+stripeCheckoutPathBase+"{id}", b.handleStripeCheckout)
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := r.Method + " " + strings.TrimPrefix(r.URL.Path, b.prefix)
	b.mu.Lock()
	b.calls[call]++
	b.mu.Unlock()
	if b.onRequest != nil {
		b.onRequest(call)
	}

	log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Msg("fakebackend")
	b.mux.ServeHTTP(w, r)
}

// Calls returns how often "METHOD /path" was requested, path without the prefix
func (b *Backend) Calls(methodAndPath string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[methodAndPath]
}

// CreateAccount registers a user directly, bypassing signup
func (b *Backend) CreateAccount(name, email, password string, plan users.PlanTier) (*users.Account, error) {
	hash, err := users.HashPassword(password)
	if err != nil {
		return nil, err
	}
	account := &users.Account{
		Profile:      users.Profile{Name: name, Email: strings.ToLower(email), Plan: plan},
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := b.accounts.Upsert(account); err != nil {
		return nil, err
	}
	return account, nil
}

// IssueToken returns a bearer token for an existing account
func (b *Backend) IssueToken(account *users.Account) (string, error) {
	return b.creator.CreateAccessToken(account.ID, account.Email)
}

// Revoke makes the backend reject rawToken from now on
func (b *Backend) Revoke(rawToken string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[rawToken] = true
}

// RevokeUser rejects every token issued to userID, as a sign-out-everywhere would
func (b *Backend) RevokeUser(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signedOut[userID] = true
}

// SetUsage overrides how much of feature a user has consumed
func (b *Backend) SetUsage(userID, feature string, used int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.usage[userID] == nil {
		b.usage[userID] = make(map[string]int)
	}
	b.usage[userID][feature] = used
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}
