// Package revoker implements the "revoke all sessions except the current
// one" workflow. The loop is deliberately sequential and paced to stay
// below the vendor's rate limits; a failed revocation is recorded and the
// loop moves on.
package revoker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/zurikai/wallet-gateway/pkg/dynamicapi"
	"github.com/zurikai/wallet-gateway/pkg/tokens"
)

type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
)

const defaultInterval = 500 * time.Millisecond

// SessionAPI is the slice of the vendor client the runner needs.
type SessionAPI interface {
	FetchUser(ctx context.Context, userID string) (*dynamicapi.User, error)
	Revoke(ctx context.Context, sessionID string) error
}

// Report is the outcome of one run. Partial completion is an expected,
// reported state, not an error: Failed counts revocations that did not go
// through while the rest of the loop continued.
type Report struct {
	State            State   `json:"state"`
	UserID           string  `json:"userId,omitempty"`
	CurrentSessionID string  `json:"currentSessionId,omitempty"`
	TotalSessions    int     `json:"totalSessions"`
	ActiveSessions   int     `json:"activeSessions"`
	AlreadyRevoked   int     `json:"alreadyRevoked"`
	Targets          int     `json:"targets"`
	Revoked          int     `json:"revoked"`
	Failed           int     `json:"failed"`
	Log              []Entry `json:"log"`
}

type Option func(*Runner)

// WithInterval overrides the pacing between revoke calls.
func WithInterval(interval time.Duration) Option {
	return func(r *Runner) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithSink registers an observer that receives each log entry as it is
// produced, in addition to the entries collected into the report.
func WithSink(sink func(Entry)) Option {
	return func(r *Runner) {
		r.sink = sink
	}
}

type Runner struct {
	api      SessionAPI
	interval time.Duration
	sink     func(Entry)
}

func NewRunner(api SessionAPI, opts ...Option) *Runner {
	r := &Runner{
		api:      api,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the workflow for the holder of rawToken. The token is only
// decoded, never verified: the vendor API authorizes the actual calls with
// the server-held secret, and the ids merely select what to revoke.
//
// A non-nil error means the run aborted before any revocation was attempted.
func (r *Runner) Run(ctx context.Context, rawToken string) (*Report, error) {
	report := &Report{State: StateRunning}
	log := newLog(r.sink)
	defer func() {
		report.Log = log.entries
	}()

	claims, err := tokens.Decode(rawToken)
	if err != nil {
		report.State = StateAborted
		log.errorf("failed to decode token: %v", err)
		return report, fmt.Errorf("decode token: %w", err)
	}

	sessionID := claims.SessionID()
	userID := claims.UserID()
	if sessionID == "" || userID == "" {
		report.State = StateAborted
		log.errorf("missing session id or user id in token")
		return report, fmt.Errorf("token carries no session id or user id")
	}

	report.CurrentSessionID = sessionID
	report.UserID = userID

	log.infof("current session: %s", abbreviate(sessionID))
	log.infof("user: %s", userID)
	if !claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(time.Now()) {
		log.warnf("token expired at %s", claims.ExpiresAt.Format(time.RFC3339))
	}

	user, err := r.api.FetchUser(ctx, userID)
	if err != nil {
		report.State = StateAborted
		log.errorf("failed to fetch user sessions: %v", err)
		return report, fmt.Errorf("fetch user sessions: %w", err)
	}

	report.TotalSessions = len(user.Sessions)

	var targets []dynamicapi.Session
	for _, s := range user.Sessions {
		if !s.Active() {
			report.AlreadyRevoked++
			continue
		}
		report.ActiveSessions++
		if s.ID != sessionID {
			targets = append(targets, s)
		}
	}
	report.Targets = len(targets)

	log.successf("found %d total session(s)", report.TotalSessions)
	log.infof("active: %d, already revoked: %d", report.ActiveSessions, report.AlreadyRevoked)

	if len(targets) == 0 {
		report.State = StateCompleted
		log.successf("no other active sessions, nothing to revoke")
		return report, nil
	}

	log.infof("revoking %d session(s), current session excluded", len(targets))

	limiter := rate.NewLimiter(rate.Every(r.interval), 1)
	for i, target := range targets {
		if err := limiter.Wait(ctx); err != nil {
			log.warnf("stopping early: %v", err)
			break
		}

		log.infof("[%d/%d] revoking session %s", i+1, len(targets), abbreviate(target.ID))
		if err := r.api.Revoke(ctx, target.ID); err != nil {
			report.Failed++
			log.errorf("failed to revoke session %s: %v", abbreviate(target.ID), err)
			continue
		}
		report.Revoked++
		log.successf("revoked session %s", abbreviate(target.ID))
	}

	report.State = StateCompleted
	log.successf("done: revoked %d, failed %d, current session preserved", report.Revoked, report.Failed)

	return report, nil
}

func abbreviate(id string) string {
	if len(id) <= 20 {
		return id
	}
	return id[:20] + "..."
}
