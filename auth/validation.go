package auth

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"

	"github.com/jrsteele09/resumeforge-web/users"
)

const (
	maxNameLength   = 100
	maxAvatarLength = 2048
)

// Validator checks form input before anything is sent to the backend
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEmail checks presence and basic format
func (v *Validator) ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return EmailRequiredErr
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return InvalidEmailErr
	}
	return nil
}

// ValidateLogin validates login credentials. Strength is not checked here; the
// backend decides whether the password is right.
func (v *Validator) ValidateLogin(params LoginParameters) error {
	if err := v.ValidateEmail(params.Email); err != nil {
		return err
	}
	if params.Password == "" {
		return PasswordRequiredErr
	}
	return nil
}

// ValidateSignup validates a new account
func (v *Validator) ValidateSignup(params SignupParameters) error {
	if strings.TrimSpace(params.Name) == "" {
		return NameRequiredErr
	}
	if len(params.Name) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	if err := v.ValidateEmail(params.Email); err != nil {
		return err
	}
	if params.Password == "" {
		return PasswordRequiredErr
	}
	if err := users.ValidatePasswordStrength(params.Password); err != nil {
		return err
	}
	if params.Password != params.ConfirmPassword {
		return UserPasswordsDontMatchErr
	}
	return nil
}

// ProfileChanges validates the profile form and converts it to changes.
// Blank fields are not part of the change set.
func (v *Validator) ProfileChanges(params ProfileParameters) (users.ProfileChanges, error) {
	var changes users.ProfileChanges

	if name := strings.TrimSpace(params.Name); name != "" {
		if len(name) > maxNameLength {
			return changes, fmt.Errorf("name must be at most %d characters", maxNameLength)
		}
		changes.Name = &name
	}

	if avatar := strings.TrimSpace(params.Avatar); avatar != "" {
		if len(avatar) > maxAvatarLength {
			return changes, fmt.Errorf("avatar reference is too long")
		}
		u, err := url.Parse(avatar)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return changes, fmt.Errorf("avatar must be an http or https URL")
		}
		changes.Avatar = &avatar
	}

	if changes.Name == nil && changes.Avatar == nil {
		return changes, fmt.Errorf("nothing to update")
	}
	return changes, nil
}

// ValidateState validates the OAuth state parameter
func ValidateState(state string) error {
	if state == "" {
		return InvalidStateErr
	}

	// Should be reasonably long for CSRF protection
	if len(state) < 8 {
		return fmt.Errorf("state parameter should be at least 8 characters for security")
	}

	if strings.TrimSpace(state) != state {
		return fmt.Errorf("state parameter must not contain leading/trailing whitespace")
	}

	return nil
}

// SafeReturnPath returns path when it is a local absolute path, otherwise fallback.
// It keeps post-login redirects on this site.
func SafeReturnPath(path, fallback string) string {
	if path == "" || !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return fallback
	}
	u, err := url.Parse(path)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return path
}
