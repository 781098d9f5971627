package checkout

import (
	"context"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/pkg/errors"
)

// Razorpay opens the Razorpay checkout overlay in the browser
type Razorpay struct {
	keyID        string
	loader       *ScriptLoader
	scriptPath   string
	callbackPath string
	merchantName string
}

// RazorpayOption defines a function type to modify the Razorpay instance.
type RazorpayOption func(*Razorpay)

// WithMerchantName sets the name shown in the overlay header
func WithMerchantName(name string) RazorpayOption {
	return func(r *Razorpay) {
		r.merchantName = name
	}
}

// NewRazorpay creates the gateway. keyID is the fallback when an order does not
// carry its own key; scriptPath and callbackPath are frontend routes.
func NewRazorpay(keyID string, loader *ScriptLoader, scriptPath, callbackPath string, options ...RazorpayOption) *Razorpay {
	r := &Razorpay{
		keyID:        keyID,
		loader:       loader,
		scriptPath:   scriptPath,
		callbackPath: callbackPath,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *Razorpay) Name() string {
	return GatewayRazorpay
}

func (r *Razorpay) Load(ctx context.Context) error {
	return r.loader.Load(ctx)
}

func (r *Razorpay) Open(ctx context.Context, order *apiclient.CheckoutOrder) (*Action, error) {
	if order == nil || order.Order == nil || order.Order.ID == "" {
		return nil, errors.Wrap(apperrors.ErrOrderCreation, "[Open] razorpay order without id")
	}
	if _, loaded := r.loader.Script(); !loaded {
		return nil, errors.Wrap(apperrors.ErrScriptLoad, "[Open] overlay requested before the SDK loaded")
	}

	keyID := order.Order.KeyID
	if keyID == "" {
		keyID = r.keyID
	}
	if keyID == "" {
		return nil, errors.Wrap(apperrors.ErrOrderCreation, "[Open] no razorpay key id configured")
	}

	return &Action{
		Kind:    ActionOverlay,
		Gateway: GatewayRazorpay,
		Overlay: &Overlay{
			KeyID:        keyID,
			OrderID:      order.Order.ID,
			Amount:       order.Order.Amount,
			Currency:     order.Order.Currency,
			ScriptPath:   r.scriptPath,
			CallbackPath: r.callbackPath,
			Name:         r.merchantName,
			Description:  order.PlanID,
		},
	}, nil
}
