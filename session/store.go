package session

import (
	"encoding/json"
	"strings"
	"sync"

	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/jrsteele09/resumeforge-web/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Store is the single source of truth for "am I logged in and as whom".
// Any component may call Clear; afterwards the store reads as freshly unauthenticated.
type Store struct {
	mu          sync.Mutex
	persister   Persister
	navigator   Navigator
	loginPath   string
	navigated   bool
	subscribers map[int]func(Event)
	nextSubID   int
}

// StoreOption defines a function type to modify the Store instance.
type StoreOption func(*Store)

// WithNavigator sets the navigator used by Clear
func WithNavigator(n Navigator) StoreOption {
	return func(s *Store) {
		s.navigator = n
	}
}

// WithLoginPath overrides the path Clear navigates to
func WithLoginPath(path string) StoreOption {
	return func(s *Store) {
		s.loginPath = path
	}
}

// NewStore creates a store over the given persister
func NewStore(persister Persister, options ...StoreOption) *Store {
	s := &Store{
		persister:   persister,
		loginPath:   DefaultLoginPath,
		subscribers: make(map[int]func(Event)),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Save persists the token and user together. On failure neither entry is left behind.
func (s *Store) Save(token string, user users.Profile) error {
	if strings.TrimSpace(token) == "" {
		return errors.Wrap(apperrors.ErrInvalidInput, "[Save] token is required")
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[Save] marshal user")
	}

	s.mu.Lock()
	if err := s.persister.Store(UserEntry, string(userJSON)); err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "[Save] store user")
	}
	if err := s.persister.Store(TokenEntry, token); err != nil {
		s.persister.Remove(UserEntry)
		s.mu.Unlock()
		return errors.Wrap(err, "[Save] store token")
	}
	s.navigated = false
	current := s.readLocked()
	s.mu.Unlock()

	s.notify(Event{Type: EventSaved, Session: current})
	return nil
}

// Read returns the current session and whether a token is present
func (s *Store) Read() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.readLocked()
	return current, current.Authenticated()
}

// Token returns the bearer token, or "" when signed out
func (s *Store) Token() string {
	current, _ := s.Read()
	return current.Token
}

// UpdateUser replaces the stored profile after a profile edit. The token is untouched.
func (s *Store) UpdateUser(user users.Profile) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return errors.Wrap(err, "[UpdateUser] marshal user")
	}

	s.mu.Lock()
	if _, ok := s.persister.Load(TokenEntry); !ok {
		s.mu.Unlock()
		return errors.Wrap(apperrors.ErrNoSession, "[UpdateUser]")
	}
	if err := s.persister.Store(UserEntry, string(userJSON)); err != nil {
		s.mu.Unlock()
		return errors.Wrap(err, "[UpdateUser] store user")
	}
	current := s.readLocked()
	s.mu.Unlock()

	s.notify(Event{Type: EventUserUpdated, Session: current})
	return nil
}

// Clear removes both entries and navigates to the login page.
// Clearing an already-empty store changes nothing and notifies nobody.
func (s *Store) Clear() {
	s.mu.Lock()
	_, hadToken := s.persister.Load(TokenEntry)
	_, hadUser := s.persister.Load(UserEntry)
	s.persister.Remove(TokenEntry)
	s.persister.Remove(UserEntry)

	navigate := !s.navigated && s.navigator != nil
	s.navigated = true
	s.mu.Unlock()

	if hadToken || hadUser {
		log.Debug().Msg("session cleared")
		s.notify(Event{Type: EventCleared})
	}
	if navigate {
		s.navigator.Navigate(s.loginPath)
	}
}

// Subscribe registers fn for session changes and returns a function that removes it
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) notify(event Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(event)
	}
}

func (s *Store) readLocked() Session {
	token, ok := s.persister.Load(TokenEntry)
	if !ok || token == "" {
		return Session{}
	}

	current := Session{Token: token}
	if raw, ok := s.persister.Load(UserEntry); ok {
		var user users.Profile
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			log.Warn().Err(err).Msg("stored user profile is unreadable")
		} else {
			current.User = &user
		}
	}
	return current
}
