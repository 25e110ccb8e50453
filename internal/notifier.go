package internal

import (
	"context"
	"fmt"

	"resty.dev/v3"
)

// HTTPNotifier posts build transitions to the notify service.
type HTTPNotifier struct {
	client  *resty.Client
	baseURL string
	auth    string
}

func NewHTTPNotifier(client *resty.Client, baseURL, auth string) *HTTPNotifier {
	return &HTTPNotifier{client: client, baseURL: baseURL, auth: auth}
}

func (n *HTTPNotifier) Notify(ctx context.Context, t Transition) error {
	res, err := n.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Basic "+n.auth).
		SetQueryParam("args", t.To.String()).
		Post(n.baseURL + "/notify/builds/")
	if err != nil {
		return fmt.Errorf("notify builds: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("notify builds: status %d", res.StatusCode())
	}
	return nil
}
