package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// OrderService is the backend side of a checkout
type OrderService interface {
	StartSubscription(ctx context.Context, planID string) (*apiclient.CheckoutOrder, error)
	VerifyPayment(ctx context.Context, proof apiclient.PaymentProof) (*apiclient.PaymentConfirmation, error)
}

// Bridge runs a checkout: order creation, gateway selection, SDK load, hand-off,
// and verification of the gateway's payment proof.
type Bridge struct {
	orders   OrderService
	registry *Registry
	plans    []Plan
}

// BridgeOption defines a function type to modify the Bridge instance.
type BridgeOption func(*Bridge)

// WithPlans replaces the embedded plan list
func WithPlans(plans []Plan) BridgeOption {
	return func(b *Bridge) {
		b.plans = plans
	}
}

// NewBridge creates a bridge over the backend order service and gateway registry
func NewBridge(orders OrderService, registry *Registry, options ...BridgeOption) *Bridge {
	b := &Bridge{
		orders:   orders,
		registry: registry,
	}
	for _, opt := range options {
		opt(b)
	}
	if b.plans == nil {
		b.plans = DefaultPlans()
	}
	return b
}

// Plans returns the purchasable plans
func (b *Bridge) Plans() []Plan {
	return b.plans
}

// Plan returns the plan with id
func (b *Bridge) Plan(id string) (Plan, bool) {
	for _, p := range b.plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Start creates an order for planID and returns the browser hand-off.
// If order creation fails no gateway is touched; if the SDK fails to load no
// overlay is produced.
func (b *Bridge) Start(ctx context.Context, planID string) (*Action, error) {
	if _, ok := b.Plan(planID); !ok {
		return nil, errors.Wrapf(apperrors.ErrInvalidInput, "[Start] unknown plan %q", planID)
	}

	order, err := b.orders.StartSubscription(ctx, planID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("[Start] %w: %w", apperrors.ErrOrderCreation, err)
	}
	order.PlanID = planID

	gateway, err := b.registry.Get(order.Gateway)
	if err != nil {
		return nil, err
	}
	logger := log.With().Str("gateway", gateway.Name()).Str("plan", planID).Logger()

	if err := gateway.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("checkout aborted, gateway not ready")
		return nil, err
	}

	action, err := gateway.Open(ctx, order)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("action", string(action.Kind)).Msg("checkout started")
	return action, nil
}

// Complete forwards the gateway's payment proof to the backend. The purchase
// only counts as complete once the backend confirms it.
func (b *Bridge) Complete(ctx context.Context, proof apiclient.PaymentProof) (*apiclient.PaymentConfirmation, error) {
	if strings.TrimSpace(proof.OrderID) == "" || strings.TrimSpace(proof.PaymentID) == "" || strings.TrimSpace(proof.Signature) == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidInput, "[Complete] incomplete payment proof")
	}

	confirmation, err := b.orders.VerifyPayment(ctx, proof)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("[Complete] %w: %w", apperrors.ErrPaymentVerification, err)
	}
	if !confirmation.Verified {
		return nil, errors.Wrapf(apperrors.ErrPaymentVerification, "[Complete] order %s rejected", proof.OrderID)
	}

	log.Info().Str("order_id", proof.OrderID).Str("plan", string(confirmation.Plan)).Msg("payment verified")
	return confirmation, nil
}
