package dynamicapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Session is a vendor-tracked authenticated context. A session is active iff
// RevokedAt is null.
type Session struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	RevokedAt *time.Time `json:"revokedAt"`
	IPAddress string     `json:"ipAddress,omitempty"`
	UserAgent string     `json:"userAgent,omitempty"`
}

func (s *Session) Active() bool {
	return s.RevokedAt == nil
}

type User struct {
	ID       string    `json:"id"`
	Email    string    `json:"email,omitempty"`
	Sessions []Session `json:"sessions"`
}

type userEnvelope struct {
	User User `json:"user"`
}

// FetchUser is the typed variant of GetUser for callers that need the
// session list rather than a passthrough body.
func (c *Client) FetchUser(ctx context.Context, userID string) (*User, error) {
	upstream, err := c.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upstream.StatusCode < http.StatusOK || upstream.StatusCode >= http.StatusMultipleChoices {
		return nil, &UpstreamError{StatusCode: upstream.StatusCode, Body: upstream.Body}
	}

	var envelope userEnvelope
	if err := json.Unmarshal(upstream.Body, &envelope); err != nil {
		return nil, fmt.Errorf("decode user response: %w", err)
	}
	return &envelope.User, nil
}

// Revoke is the typed variant of RevokeSession; any non-2xx answer becomes
// an UpstreamError.
func (c *Client) Revoke(ctx context.Context, sessionID string) error {
	upstream, err := c.RevokeSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if upstream.StatusCode < http.StatusOK || upstream.StatusCode >= http.StatusMultipleChoices {
		return &UpstreamError{StatusCode: upstream.StatusCode, Body: upstream.Body}
	}
	return nil
}
