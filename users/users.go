package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// PlanTier is the subscription tier reported by the backend
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPro     PlanTier = "pro"
	PlanPremium PlanTier = "premium"
)

// Profile is the user-facing profile stored alongside the bearer token
type Profile struct {
	ID     string   `json:"id"`               // Backend user identifier
	Name   string   `json:"name,omitempty"`   // Display name
	Email  string   `json:"email,omitempty"`  // Login email
	Avatar string   `json:"avatar,omitempty"` // Avatar reference (URL or storage key)
	Plan   PlanTier `json:"plan,omitempty"`   // Current plan tier
}

// DisplayName returns the best available name for headers and greetings
func (p *Profile) DisplayName() string {
	if p == nil {
		return ""
	}
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	if at := strings.Index(p.Email, "@"); at > 0 {
		return p.Email[:at]
	}
	return p.Email
}

// IsPaid reports whether the profile is on a paid tier
func (p *Profile) IsPaid() bool {
	return p != nil && p.Plan != "" && p.Plan != PlanFree
}

// ProfileChanges holds the editable profile fields. Nil fields are left untouched.
type ProfileChanges struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

// Apply returns a copy of p with the changes applied
func (c ProfileChanges) Apply(p Profile) Profile {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Avatar != nil {
		p.Avatar = *c.Avatar
	}
	return p
}

// Account is a profile plus credentials, as held by a backend
type Account struct {
	Profile
	PasswordHash string    `json:"-"` // Never serialize
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
