package auth

import "errors"

var (
	EmailRequiredErr          = errors.New("email is required")
	InvalidEmailErr           = errors.New("invalid email format")
	PasswordRequiredErr       = errors.New("password is required")
	NameRequiredErr           = errors.New("name is required")
	UserPasswordsDontMatchErr = errors.New("passwords do not match")
	GoogleSignInDisabledErr   = errors.New("google sign-in is not configured")
	InvalidStateErr           = errors.New("invalid or expired sign-in state")
	NonceMismatchErr          = errors.New("id token nonce mismatch")
)
