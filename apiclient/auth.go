package apiclient

import (
	"context"
	"net/http"
)

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup creates an account; the backend signs the new user in
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/signup", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GoogleLogin exchanges a verified Google ID token for a backend session
func (c *Client) GoogleLogin(ctx context.Context, idToken string) (*AuthResponse, error) {
	var resp AuthResponse
	body := map[string]string{"id_token": idToken}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/google", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the backend to send a password reset email
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/forgot-password", map[string]string{"email": email}, nil)
}

// VerifySession asks the backend whether the bearer token is still valid
func (c *Client) VerifySession(ctx context.Context) (*VerifyResponse, error) {
	var resp VerifyResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/verify", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
