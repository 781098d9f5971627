package apiclient

import (
	"context"
	"net/http"
)

// CheckFeature asks whether the current user may use feature right now
func (c *Client) CheckFeature(ctx context.Context, feature string) (*FeatureCheck, error) {
	var resp FeatureCheck
	if err := c.doJSON(ctx, http.MethodGet, "/check-feature/"+escape(feature), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
