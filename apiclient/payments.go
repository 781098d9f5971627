package apiclient

import (
	"context"
	"net/http"
)

// StartSubscription requests a checkout descriptor for planID
func (c *Client) StartSubscription(ctx context.Context, planID string) (*CheckoutOrder, error) {
	var resp CheckoutOrder
	body := map[string]string{"plan_id": planID}
	if err := c.doJSON(ctx, http.MethodPost, "/subscription/start", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPayment forwards a gateway payment proof for server-side verification
func (c *Client) VerifyPayment(ctx context.Context, proof PaymentProof) (*PaymentConfirmation, error) {
	var resp PaymentConfirmation
	if err := c.doJSON(ctx, http.MethodPost, "/payments/verify", proof, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
