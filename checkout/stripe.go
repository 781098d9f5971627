package checkout

import (
	"context"
	"net/url"

	"github.com/jrsteele09/resumeforge-web/apiclient"
	apperrors "github.com/jrsteele09/resumeforge-web/internal/errors"
	"github.com/pkg/errors"
)

// Stripe sends the browser to the backend-created hosted checkout page.
// Completion happens out of band, so there is nothing to verify here.
type Stripe struct{}

// NewStripe creates the gateway
func NewStripe() *Stripe {
	return &Stripe{}
}

func (s *Stripe) Name() string {
	return GatewayStripe
}

func (s *Stripe) Load(ctx context.Context) error {
	return nil
}

func (s *Stripe) Open(ctx context.Context, order *apiclient.CheckoutOrder) (*Action, error) {
	if order == nil || order.CheckoutURL == "" {
		return nil, errors.Wrap(apperrors.ErrOrderCreation, "[Open] stripe order without checkout url")
	}
	u, err := url.Parse(order.CheckoutURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, errors.Wrapf(apperrors.ErrOrderCreation, "[Open] invalid checkout url %q", order.CheckoutURL)
	}

	return &Action{
		Kind:        ActionRedirect,
		Gateway:     GatewayStripe,
		RedirectURL: u.String(),
	}, nil
}
