// Package dynamicapi is a thin client for the Dynamic REST API. Calls are
// authenticated with a server-held bearer secret which is independent of any
// user token; the secret must never reach a browser.
package dynamicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

var defaultChains = []string{"EVM"}

type Config struct {
	EnvironmentID    string
	BearerToken      string
	AuthAPIBaseURL   string
	WalletAPIBaseURL string
	Timeout          time.Duration
}

type Client struct {
	cfg  Config
	rest *resty.Client
}

func NewClient(cfg Config) *Client {
	rest := resty.New()
	if cfg.Timeout > 0 {
		rest.SetTimeout(cfg.Timeout)
	}
	return &Client{
		cfg:  cfg,
		rest: rest,
	}
}

// Upstream is the vendor's verbatim answer: status code plus raw body. The
// proxy handlers forward both without reinterpretation.
type Upstream struct {
	StatusCode int
	Body       []byte
}

// JSON returns the payload to forward to the caller: the parsed body when it
// is valid JSON, {"message": <raw text>} when it is not, and an empty object
// for an empty body.
func (u *Upstream) JSON() any {
	if len(u.Body) == 0 {
		return map[string]any{}
	}
	var parsed any
	if err := json.Unmarshal(u.Body, &parsed); err != nil {
		return map[string]any{"message": string(u.Body)}
	}
	return parsed
}

// UpstreamError reports a non-2xx vendor response on the typed call paths.
type UpstreamError struct {
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("dynamic api returned status %d: %s", e.StatusCode, string(e.Body))
}

type CreateWalletRequest struct {
	Identifier string   `json:"identifier"`
	Type       string   `json:"type"`
	Chains     []string `json:"chains"`
}

// CreateWallet provisions an embedded wallet through the WaaS endpoint.
// Chains defaults to ["EVM"] when the caller supplies none.
func (c *Client) CreateWallet(ctx context.Context, req CreateWalletRequest) (*Upstream, error) {
	if len(req.Chains) == 0 {
		req.Chains = defaultChains
	}

	endpoint := fmt.Sprintf("%s/api/v0/environments/%s/waas/create", c.cfg.WalletAPIBaseURL, url.PathEscape(c.cfg.EnvironmentID))
	resp, err := c.newRequest(ctx).SetBody(req).Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	return upstreamOf(resp), nil
}

// GetUser fetches a user record, including its session list.
func (c *Client) GetUser(ctx context.Context, userID string) (*Upstream, error) {
	endpoint := fmt.Sprintf("%s/api/v0/environments/%s/users/%s", c.cfg.AuthAPIBaseURL, url.PathEscape(c.cfg.EnvironmentID), url.PathEscape(userID))
	resp, err := c.newRequest(ctx).Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return upstreamOf(resp), nil
}

// RevokeSession revokes a single vendor session by id.
func (c *Client) RevokeSession(ctx context.Context, sessionID string) (*Upstream, error) {
	endpoint := fmt.Sprintf("%s/api/v0/sessions/%s/revoke", c.cfg.AuthAPIBaseURL, url.PathEscape(sessionID))
	resp, err := c.newRequest(ctx).Put(endpoint)
	if err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	return upstreamOf(resp), nil
}

func (c *Client) newRequest(ctx context.Context) *resty.Request {
	return c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.cfg.BearerToken).
		SetHeader("Content-Type", "application/json")
}

func upstreamOf(resp *resty.Response) *Upstream {
	return &Upstream{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}
}
