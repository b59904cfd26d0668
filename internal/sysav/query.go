package sysav

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/auto-dns/sysav-sync/internal/domain"
)

// Guessed endpoint paths relative to the API base, tried in order.
var candidateEndpoints = []string{
	"/waste/collection",
	"/collection/next",
	"/waste/search",
}

type queryBody struct {
	Municipality string `json:"municipality"`
	Street       string `json:"street"`
	StreetNumber string `json:"streetNumber"`
	City         string `json:"city"`
}

type strategy struct {
	method string
	send   func(ctx context.Context, endpoint string) (*response, error)
}

// FetchNext looks up the next emptying per bin for addr. Every candidate
// endpoint is tried with GET first and then with POST; the first parseable
// JSON response wins, even when it holds no entries.
func (c *Client) FetchNext(ctx context.Context, addr domain.Address) (*domain.Schedule, error) {
	base, err := c.Discover(ctx, addr.Municipality)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("municipality", string(addr.Municipality))
	params.Set("street", addr.Street)
	params.Set("number", addr.Number)
	params.Set("city", addr.City)

	body := queryBody{
		Municipality: string(addr.Municipality),
		Street:       addr.Street,
		StreetNumber: addr.Number,
		City:         addr.City,
	}

	strategies := []strategy{
		{
			method: http.MethodGet,
			send: func(ctx context.Context, endpoint string) (*response, error) {
				return c.get(ctx, endpoint, params, c.queryTimeout)
			},
		},
		{
			method: http.MethodPost,
			send: func(ctx context.Context, endpoint string) (*response, error) {
				return c.postJSON(ctx, endpoint, body, c.queryTimeout)
			},
		},
	}

	var lastErr error
	for _, s := range strategies {
		for _, path := range candidateEndpoints {
			if err := ctx.Err(); err != nil {
				return nil, NewQueryError(err)
			}
			endpoint := base + path
			payload, found, err := c.tryEndpoint(ctx, s, endpoint)
			if err != nil {
				lastErr = err
				c.logger.Debug().Err(err).Str("method", s.method).Str("endpoint", endpoint).Msg("SYSAV endpoint attempt failed")
				continue
			}
			if !found {
				c.logger.Debug().Str("method", s.method).Str("endpoint", endpoint).Msg("SYSAV endpoint not found")
				continue
			}
			schedule := Normalize(payload)
			c.logger.Debug().Str("method", s.method).Str("endpoint", endpoint).Int("entries", schedule.Len()).Msg("SYSAV endpoint answered")
			return schedule, nil
		}
	}

	return nil, NewQueryError(lastErr)
}

// tryEndpoint reports found=false for a 404, which is not treated as an error.
func (c *Client) tryEndpoint(ctx context.Context, s strategy, endpoint string) (any, bool, error) {
	resp, err := s.send(ctx, endpoint)
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, &statusError{method: s.method, url: endpoint, statusCode: resp.StatusCode}
	}
	var payload any
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, false, fmt.Errorf("decode %s %s: %w", s.method, endpoint, err)
	}
	return payload, true, nil
}
