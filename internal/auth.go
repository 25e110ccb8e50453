package internal

import (
	"context"
	"errors"
	"fmt"

	"resty.dev/v3"
)

var ErrAssertionRejected = errors.New("assertion rejected")

// Verifier checks identity assertions against the external verifier service
// and decides whether the verified email belongs to a trusted user. The
// protocol itself is the verifier's problem; the dashboard only cares about
// the (email, trusted) outcome.
type Verifier struct {
	client   *resty.Client
	url      string
	audience string
	allowed  map[string]bool
}

func NewVerifier(client *resty.Client, url, audience string, allowed []string) *Verifier {
	set := make(map[string]bool, len(allowed))
	for _, email := range allowed {
		set[email] = true
	}
	return &Verifier{client: client, url: url, audience: audience, allowed: set}
}

type verifierResponse struct {
	Status string `json:"status"`
	Email  string `json:"email"`
}

// Verify returns the asserted email and whether it is on the allowed list.
func (v *Verifier) Verify(ctx context.Context, assertion string) (string, bool, error) {
	var parsed verifierResponse
	res, err := v.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"assertion": assertion,
			"audience":  v.audience,
		}).
		SetResult(&parsed).
		Post(v.url)
	if err != nil {
		return "", false, fmt.Errorf("verifier request: %w", err)
	}
	if res.IsError() {
		return "", false, fmt.Errorf("verifier request: status %d", res.StatusCode())
	}

	if parsed.Status != "okay" {
		return "", false, ErrAssertionRejected
	}
	return parsed.Email, v.allowed[parsed.Email], nil
}
