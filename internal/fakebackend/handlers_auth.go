package fakebackend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/resumeforge-web/token"
	"github.com/jrsteele09/resumeforge-web/users"
)

type contextKey string

const accountKey contextKey = "account"

func accountFrom(r *http.Request) *users.Account {
	account, _ := r.Context().Value(accountKey).(*users.Account)
	return account
}

// authenticated rejects requests without a valid, unrevoked bearer token
func (b *Backend) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		b.mu.Lock()
		revoked := b.revoked[raw]
		b.mu.Unlock()
		if revoked {
			writeError(w, http.StatusUnauthorized, "token_revoked", "Session has been revoked")
			return
		}

		subject, err := token.Verify(raw, b.signer)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "Session expired")
			return
		}
		b.mu.Lock()
		signedOut := b.signedOut[subject]
		b.mu.Unlock()
		if signedOut {
			writeError(w, http.StatusUnauthorized, "token_revoked", "Session has been revoked")
			return
		}
		account, err := b.accounts.GetByID(subject)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token", "Unknown user")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), accountKey, account)))
	}
}

func (b *Backend) authResponse(w http.ResponseWriter, status int, account *users.Account) {
	raw, err := b.IssueToken(account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "Could not issue token")
		return
	}
	writeJSON(w, status, map[string]any{"token": raw, "user": account.Profile})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request")
		return
	}

	account, err := b.accounts.GetByEmail(req.Email)
	if err != nil || !users.CheckPasswordHash(req.Password, account.PasswordHash) {
		writeError(w, http.StatusBadRequest, "invalid_credentials", "Invalid email or password")
		return
	}
	b.authResponse(w, http.StatusOK, account)
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Email and password are required")
		return
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, "weak_password", err.Error())
		return
	}
	if _, err := b.accounts.GetByEmail(req.Email); err == nil {
		writeError(w, http.StatusConflict, "email_taken", "An account with this email already exists")
		return
	}

	account, err := b.CreateAccount(req.Name, req.Email, req.Password, users.PlanFree)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "Could not create account")
		return
	}
	b.authResponse(w, http.StatusCreated, account)
}

// handleGoogle trusts the ID token's claims. The frontend has already
// verified it against Google; a real backend verifies it again.
func (b *Backend) handleGoogle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := decodeJSON(r, &req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "id_token is required")
		return
	}
	claims, err := token.ParseUnverified(req.IDToken)
	if err != nil || claims.Email == "" {
		writeError(w, http.StatusBadRequest, "invalid_token", "Unreadable Google token")
		return
	}

	account, err := b.accounts.GetByEmail(claims.Email)
	if err != nil {
		account = &users.Account{
			Profile:   users.Profile{Email: strings.ToLower(claims.Email), Plan: users.PlanFree},
			CreatedAt: time.Now(),
		}
		if err := b.accounts.Upsert(account); err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "Could not create account")
			return
		}
	}
	b.authResponse(w, http.StatusOK, account)
}

func (b *Backend) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	// Always succeeds so the response does not reveal which emails exist.
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "valid"})
}

func (b *Backend) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var changes users.ProfileChanges
	if err := decodeJSON(r, &changes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Malformed request")
		return
	}

	account := accountFrom(r)
	account.Profile = changes.Apply(account.Profile)
	if err := b.accounts.Upsert(account); err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "Could not save profile")
		return
	}
	writeJSON(w, http.StatusOK, account.Profile)
}
