package apiclient

import (
	"fmt"
	"sort"

	"github.com/jrsteele09/resumeforge-web/users"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest represents a signup request
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login, signup and Google sign-in
type AuthResponse struct {
	Token string        `json:"token"`
	User  users.Profile `json:"user"`
}

// SessionStatusValid is the only verification status that admits a session
const SessionStatusValid = "valid"

// VerifyResponse is returned by the session verification endpoint
type VerifyResponse struct {
	Status string `json:"status"`
}

// Valid reports whether the backend accepted the session
func (v *VerifyResponse) Valid() bool {
	return v != nil && v.Status == SessionStatusValid
}

// FeatureCheck is the backend's allowance decision for one feature
type FeatureCheck struct {
	Feature   string `json:"feature,omitempty"`
	Allowed   bool   `json:"allowed"`
	Remaining *int   `json:"remaining,omitempty"`
}

// Order is the gateway-specific part of a checkout descriptor
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // Minor units (paise, cents)
	Currency string `json:"currency"`
	KeyID    string `json:"key_id,omitempty"` // Public key override for script gateways
}

// CheckoutOrder is the backend-issued descriptor consumed once by the checkout bridge
type CheckoutOrder struct {
	Gateway     string `json:"gateway"`
	PlanID      string `json:"plan_id,omitempty"`
	Order       *Order `json:"order,omitempty"`
	CheckoutURL string `json:"checkout_url,omitempty"`
}

// PaymentProof is what a script gateway hands back after a successful charge
type PaymentProof struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// PaymentConfirmation is the backend's verdict on a payment proof
type PaymentConfirmation struct {
	Verified bool           `json:"verified"`
	Plan     users.PlanTier `json:"plan,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// GenerateRequest carries the inputs shared by the AI generation endpoints
type GenerateRequest struct {
	ResumeText     string            `json:"resume_text,omitempty"`
	JobDescription string            `json:"job_description,omitempty"`
	JobTitle       string            `json:"job_title,omitempty"`
	Company        string            `json:"company,omitempty"`
	Tone           string            `json:"tone,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// Template is a downloadable resume template
type Template struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Premium      bool   `json:"premium,omitempty"`
}

// Artifact is a backend-computed result. Its contents are opaque to the frontend
// and only rendered.
type Artifact struct {
	Kind string
	Data map[string]any
}

// Field is one rendered key/value pair of an artifact
type Field struct {
	Key   string
	Value any
}

// Fields returns the artifact's top-level entries in key order
func (a *Artifact) Fields() []Field {
	if a == nil {
		return nil
	}
	keys := make([]string, 0, len(a.Data))
	for k := range a.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Key: k, Value: a.Data[k]})
	}
	return fields
}

// Text returns a top-level string entry, formatting non-strings
func (a *Artifact) Text(key string) string {
	if a == nil {
		return ""
	}
	switch v := a.Data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
