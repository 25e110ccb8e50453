package internal

import (
	"context"
	"fmt"

	"resty.dev/v3"
)

const tiersPath = "/api/v1/webpay/prices"

// TierAdapter fetches marketplace pricing tiers from a per-environment
// server and reshapes each tier's flat price list into a region-keyed map,
// which is what the page iterates over.
type TierAdapter struct {
	client  *resty.Client
	servers map[string]string
}

func NewTierAdapter(client *resty.Client, servers map[string]string) *TierAdapter {
	return &TierAdapter{client: client, servers: servers}
}

type tierPage struct {
	Objects []struct {
		Name   string        `json:"name"`
		Active bool          `json:"active"`
		Prices []RegionPrice `json:"prices"`
	} `json:"objects"`
}

func (a *TierAdapter) Tiers(ctx context.Context, env string) ([]Tier, error) {
	server, ok := a.servers[env]
	if !ok {
		return nil, fmt.Errorf("%w: unknown environment %q", ErrSourceUnavailable, env)
	}

	var page tierPage
	res, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&page).
		Get(server + tiersPath)
	if err != nil {
		return nil, fmt.Errorf("%w: tiers for %s: %w", ErrSourceUnavailable, env, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: tiers for %s: status %d", ErrSourceUnavailable, env, res.StatusCode())
	}

	tiers := make([]Tier, 0, len(page.Objects))
	for _, obj := range page.Objects {
		tier := Tier{
			Name:   obj.Name,
			Active: obj.Active,
			Prices: make(map[int]RegionPrice, len(obj.Prices)),
		}
		for _, price := range obj.Prices {
			tier.Prices[price.Region] = price
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}
