// Package checkout hands a subscription purchase off to the payment gateway
// the backend picked for the order, and reports the result back to the
// backend for verification.
package checkout

import (
	"context"
	"strings"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/pkg/errors"
)

// Gateway names as sent by the backend
const (
	GatewayRazorpay = "razorpay"
	GatewayStripe   = "stripe"
)

// Gateway isolates one payment SDK behind a common contract
type Gateway interface {
	// Name returns the backend gateway name this implementation serves
	Name() string

	// Load prepares the gateway SDK. It must be safe to call repeatedly and concurrently.
	Load(ctx context.Context) error

	// Open turns a backend order into the browser action that starts payment
	Open(ctx context.Context, order *apiclient.CheckoutOrder) (*Action, error)
}

// ActionKind tells the page how to hand off to the gateway
type ActionKind string

const (
	ActionOverlay  ActionKind = "overlay"
	ActionRedirect ActionKind = "redirect"
)

// Action is the hand-off the checkout page performs in the browser
type Action struct {
	Kind        ActionKind
	Gateway     string
	Overlay     *Overlay // Set for ActionOverlay
	RedirectURL string   // Set for ActionRedirect
}

// Overlay holds what the browser needs to open a script-based checkout
type Overlay struct {
	KeyID        string
	OrderID      string
	Amount       int64
	Currency     string
	ScriptPath   string // Where the page loads the SDK from
	CallbackPath string // Where the SDK success handler posts the payment proof
	Name         string
	Description  string
	PrefillName  string
	PrefillEmail string
}

// Registry selects a Gateway by the name in a backend order
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry creates a registry over gateways
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, g := range gateways {
		r.gateways[strings.ToLower(g.Name())] = g
	}
	return r
}

// Get returns the gateway registered under name
func (r *Registry) Get(name string) (Gateway, error) {
	g, ok := r.gateways[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrUnknownGateway, "[Get] %q", name)
	}
	return g, nil
}
