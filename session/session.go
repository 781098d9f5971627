// Package session holds the signed-in state of a browser: the backend bearer
// token and the user profile that came with it.
//
// The two values live in two named entries of a Persister and are always
// written and cleared together. A Store is created per page request and
// travels in the request context, so every component reads the same state.
package session

import (
	"github.com/jrsteele09/resumeforge-web/users"
)

// Entry names used with a Persister
const (
	TokenEntry = "token"
	UserEntry  = "user"
)

// DefaultLoginPath is where Clear navigates unless overridden with WithLoginPath
const DefaultLoginPath = "/login"

// Session is the authentication state of one browser
type Session struct {
	Token string         // Opaque bearer token issued by the backend
	User  *users.Profile // Only meaningful when Token is set
}

// Authenticated reports whether a token is present. It says nothing about server-side validity.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// EventType identifies a change to the session
type EventType string

const (
	EventSaved       EventType = "saved"
	EventUserUpdated EventType = "user_updated"
	EventCleared     EventType = "cleared"
)

// Event is delivered to subscribers after the change has been persisted
type Event struct {
	Type    EventType
	Session Session // State after the change
}

// Persister stores named string entries that survive between page loads
type Persister interface {
	// Load returns the entry value and whether it exists
	Load(name string) (string, bool)

	// Store creates or replaces an entry
	Store(name, value string) error

	// Remove deletes an entry. Removing a missing entry is not an error.
	Remove(name string)
}

// Navigator performs a hard navigation away from the current page
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}
