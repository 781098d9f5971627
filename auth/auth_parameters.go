package auth

import (
	"strings"
)

// LoginParameters are the fields of the login form
type LoginParameters struct {
	Email    string
	Password string
}

// SignupParameters are the fields of the signup form
type SignupParameters struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// ProfileParameters are the fields of the profile form. Empty fields are left unchanged.
type ProfileParameters struct {
	Name   string
	Avatar string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Normalize trims whitespace and lower-cases the email
func (p LoginParameters) Normalize() LoginParameters {
	p.Email = normalizeEmail(p.Email)
	return p
}

// Normalize trims whitespace and lower-cases the email
func (p SignupParameters) Normalize() SignupParameters {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = normalizeEmail(p.Email)
	return p
}
