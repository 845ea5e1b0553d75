// Package api exposes the gateway's HTTP surface: the vendor proxy
// endpoints, the token verification/session endpoints and the revoke-all
// workflow.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/zurikai/wallet-gateway/pkg/config"
	"github.com/zurikai/wallet-gateway/pkg/dynamicapi"
	"github.com/zurikai/wallet-gateway/pkg/revoker"
	"github.com/zurikai/wallet-gateway/pkg/session"
	"github.com/zurikai/wallet-gateway/pkg/tokens"
)

// VendorClient is the part of the Dynamic client the handlers use.
// *dynamicapi.Client satisfies it; tests substitute a counting fake.
type VendorClient interface {
	CreateWallet(ctx context.Context, req dynamicapi.CreateWalletRequest) (*dynamicapi.Upstream, error)
	GetUser(ctx context.Context, userID string) (*dynamicapi.Upstream, error)
	RevokeSession(ctx context.Context, sessionID string) (*dynamicapi.Upstream, error)
	FetchUser(ctx context.Context, userID string) (*dynamicapi.User, error)
	Revoke(ctx context.Context, sessionID string) error
}

// TokenVerifier abstracts tokens.Verifier for the handlers.
type TokenVerifier interface {
	Verify(ctx context.Context, serialized string) (*tokens.Claims, *tokens.VerificationError)
}

type API struct {
	cfg      *config.Config
	vendor   VendorClient
	verifier TokenVerifier
	cookies  *session.Issuer
}

func New(cfg *config.Config, vendor VendorClient, verifier TokenVerifier, cookies *session.Issuer) *API {
	return &API{
		cfg:      cfg,
		vendor:   vendor,
		verifier: verifier,
		cookies:  cookies,
	}
}

func ErrorLogMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if err != nil {
			slog.Error("Error", "error", err, "path", c.Path(), "remote_addr", c.RealIP())
		}
		return err
	}
}

func (a *API) MountRoutes(group *echo.Group) {
	group.Use(
		middleware.Logger(),
		middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)),
		ErrorLogMiddleware,
	)
	group.POST("/create-wallet", a.CreateWalletEndpoint)
	group.GET("/get-user", a.GetUserEndpoint)
	group.PUT("/revoke-session", a.RevokeSessionEndpoint)
	group.POST("/verify-token", a.VerifyTokenEndpoint)
	group.GET("/verify-token", a.SessionStatusEndpoint)
	group.POST("/revoke-sessions", a.RevokeAllEndpoint)
	group.GET("/revoke-sessions/watch", a.WatchRevokeAllEndpoint)
	group.POST("/inspect-token", a.InspectTokenEndpoint)
}

// newRunner builds a fresh orchestrator per request; runs never share state.
func (a *API) newRunner(sink func(revoker.Entry)) *revoker.Runner {
	opts := []revoker.Option{revoker.WithInterval(a.cfg.Revoke.Interval.Std())}
	if sink != nil {
		opts = append(opts, revoker.WithSink(sink))
	}
	return revoker.NewRunner(a.vendor, opts...)
}

// requireVendorConfig reports missing server-side configuration as a 500
// before any network call is attempted.
func (a *API) requireVendorConfig(c echo.Context, needEnvironmentID bool) error {
	if a.cfg.Dynamic.BearerToken == "" {
		return c.JSON(http.StatusInternalServerError, errorBody("Server configuration error: DYNAMIC_BEARER_TOKEN not configured"))
	}
	if needEnvironmentID && a.cfg.Dynamic.EnvironmentID == "" {
		return c.JSON(http.StatusInternalServerError, errorBody("Server configuration error: DYNAMIC_ENVIRONMENT_ID not configured"))
	}
	return nil
}

// passthrough forwards the vendor's status code and body verbatim.
func passthrough(c echo.Context, upstream *dynamicapi.Upstream) error {
	return c.JSON(upstream.StatusCode, upstream.JSON())
}

func internalError(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, map[string]any{
		"error":   "Internal server error",
		"details": err.Error(),
	})
}

func errorBody(message string) map[string]any {
	return map[string]any{"error": message}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// bearerToken extracts the token from an Authorization header, if present.
func bearerToken(c echo.Context) string {
	const prefix = "Bearer "
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
