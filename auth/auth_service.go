// Package auth implements the sign-in, sign-up, sign-out and profile flows
// of the frontend. The backend issues the bearer token; this package validates
// form input, calls the backend and writes the result to the session store.
package auth

import (
	"context"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/jrsteele09/resumeforge-web/session"
	"github.com/jrsteele09/resumeforge-web/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Backend is the part of the API the auth flows use
type Backend interface {
	Login(ctx context.Context, req apiclient.LoginRequest) (*apiclient.AuthResponse, error)
	Signup(ctx context.Context, req apiclient.SignupRequest) (*apiclient.AuthResponse, error)
	GoogleLogin(ctx context.Context, idToken string) (*apiclient.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, changes users.ProfileChanges) (*users.Profile, error)
}

// InputError reports a form value that was rejected before reaching the backend
type InputError struct {
	Err error
}

func (e *InputError) Error() string {
	return e.Err.Error()
}

func (e *InputError) Unwrap() []error {
	return []error{apperrors.ErrInvalidInput, e.Err}
}

// Service provides the authentication flows
type Service struct {
	backend   Backend
	validator *Validator
	google    *GoogleFlow
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithGoogle enables Google sign-in
func WithGoogle(flow *GoogleFlow) ServiceOption {
	return func(s *Service) {
		s.google = flow
	}
}

// NewService initializes a new Service over backend
func NewService(backend Backend, options ...ServiceOption) *Service {
	s := &Service{
		backend:   backend,
		validator: NewValidator(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// GoogleEnabled reports whether Google sign-in is available
func (s *Service) GoogleEnabled() bool {
	return s.google.Enabled()
}

// Login signs in with email and password and saves the session
func (s *Service) Login(ctx context.Context, store *session.Store, params LoginParameters) (*users.Profile, error) {
	params = params.Normalize()
	if err := s.validator.ValidateLogin(params); err != nil {
		return nil, &InputError{Err: err}
	}

	resp, err := s.backend.Login(ctx, apiclient.LoginRequest{Email: params.Email, Password: params.Password})
	if err != nil {
		return nil, errors.Wrap(err, "[Login]")
	}
	return s.save(store, resp)
}

// Signup creates an account and saves the session
func (s *Service) Signup(ctx context.Context, store *session.Store, params SignupParameters) (*users.Profile, error) {
	params = params.Normalize()
	if err := s.validator.ValidateSignup(params); err != nil {
		return nil, &InputError{Err: err}
	}

	resp, err := s.backend.Signup(ctx, apiclient.SignupRequest{
		Name:     params.Name,
		Email:    params.Email,
		Password: params.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Signup]")
	}
	return s.save(store, resp)
}

// ForgotPassword asks the backend to send a reset email
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.validator.ValidateEmail(email); err != nil {
		return &InputError{Err: err}
	}
	return errors.Wrap(s.backend.ForgotPassword(ctx, email), "[ForgotPassword]")
}

// BeginGoogleLogin returns the URL that starts Google sign-in
func (s *Service) BeginGoogleLogin(ctx context.Context, returnURL string) (string, error) {
	return s.google.Begin(ctx, returnURL)
}

// CompleteGoogleLogin finishes Google sign-in, exchanges the ID token with the
// backend and saves the session. It also returns the return URL given to Begin.
func (s *Service) CompleteGoogleLogin(ctx context.Context, store *session.Store, state, code string) (*users.Profile, string, error) {
	idToken, returnURL, err := s.google.Finish(ctx, state, code)
	if err != nil {
		return nil, "", err
	}

	resp, err := s.backend.GoogleLogin(ctx, idToken)
	if err != nil {
		return nil, "", errors.Wrap(err, "[CompleteGoogleLogin]")
	}
	profile, err := s.save(store, resp)
	return profile, returnURL, err
}

// Logout clears the session, which navigates to the login page
func (s *Service) Logout(store *session.Store) {
	store.Clear()
}

// UpdateProfile saves profile edits and updates the stored user.
// Subscribers of the store are notified of the change.
func (s *Service) UpdateProfile(ctx context.Context, store *session.Store, params ProfileParameters) (*users.Profile, error) {
	changes, err := s.validator.ProfileChanges(params)
	if err != nil {
		return nil, &InputError{Err: err}
	}

	profile, err := s.backend.UpdateProfile(ctx, changes)
	if err != nil {
		return nil, errors.Wrap(err, "[UpdateProfile]")
	}

	// Some backends answer with only the changed fields.
	if profile.ID == "" {
		current, ok := store.Read()
		if !ok || current.User == nil {
			return nil, errors.Wrap(apperrors.ErrNoSession, "[UpdateProfile]")
		}
		merged := changes.Apply(*current.User)
		profile = &merged
	}

	if err := store.UpdateUser(*profile); err != nil {
		return nil, errors.Wrap(err, "[UpdateProfile]")
	}
	return profile, nil
}

func (s *Service) save(store *session.Store, resp *apiclient.AuthResponse) (*users.Profile, error) {
	if resp == nil || resp.Token == "" {
		return nil, errors.Wrap(apperrors.ErrInternal, "[save] backend returned no token")
	}
	if err := store.Save(resp.Token, resp.User); err != nil {
		return nil, errors.Wrap(err, "[save] failed to store session")
	}
	log.Info().Str("user_id", resp.User.ID).Msg("signed in")
	profile := resp.User
	return &profile, nil
}
