// Package connector provides clients for the external services boulevard
// agents report to: CrewAI (agent jobs), Taskade (task tracking) and
// Blackbox (code assistance). All connectors are optional; agents skip
// reporting when a connector is not configured.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/boulevard-dev/boulevard/errors"
	"github.com/boulevard-dev/boulevard/ratelimit"
)

// defaultTimeout bounds a single connector call.
const defaultTimeout = 30 * time.Second

// Option configures a connector.
type Option func(*client)

// WithLimiter rate-limits the connector's outgoing calls. The limiter
// is consulted under the connector's service name and tightened when
// the service pushes back with 429 responses.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *client) {
		c.limiter = l
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.http = hc
	}
}

// client is the shared HTTP machinery behind every connector.
type client struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *ratelimit.Limiter
}

func newClient(name, baseURL, apiKey string, opts ...Option) client {
	c := client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// acquire waits for rate-limit clearance, when a limiter is set.
func (c client) acquire(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Acquire(ctx, c.name); err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeRateLimit, c.name+": waiting for rate limit")
	}
	return nil
}

// postJSON sends a JSON body and decodes a JSON response into out.
// out may be nil when the response body is irrelevant.
func (c client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeInvalidInput, c.name+": encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeInvalidInput, c.name+": building request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeNetworkErr, c.name+": request failed",
			errors.WithMetadata("service", c.name))
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeConnector, c.name+": decoding response")
	}
	return nil
}

// getJSON issues a GET and decodes the response into out.
func (c client) getJSON(ctx context.Context, path string, out interface{}) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeInvalidInput, c.name+": building request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeNetworkErr, c.name+": request failed",
			errors.WithMetadata("service", c.name))
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeConnector, c.name+": decoding response")
	}
	return nil
}

// checkStatus maps HTTP status codes onto the error taxonomy.
func (c client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.Newf(errors.ErrCodeUnauthorized, "%s: authentication failed (%d)", c.name, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		if c.limiter != nil {
			c.limiter.Reduce(c.name)
		}
		return errors.Newf(errors.ErrCodeRateLimit, "%s: rate limited", c.name)
	case resp.StatusCode >= 500:
		return errors.Newf(errors.ErrCodeUnavailable, "%s: server error (%d)", c.name, resp.StatusCode)
	default:
		return errors.Newf(errors.ErrCodeConnector, "%s: unexpected status %d", c.name, resp.StatusCode)
	}
}
