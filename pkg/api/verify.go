package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zurikai/wallet-gateway/pkg/tokens"
)

type verifyTokenRequest struct {
	Action string `json:"action"`
	Token  string `json:"token"`
}

// VerifyTokenEndpoint handles the three cookie-session actions:
//
//   - destroy: clear the session cookie, no token required. Logout always
//     succeeds, even with a missing or invalid token.
//   - verify / create: validate the supplied token against the provider's
//     keys and, on success, set the session cookie from its expiry.
func (a *API) VerifyTokenEndpoint(c echo.Context) error {
	var req verifyTokenRequest
	// a broken body is not fatal: the token may still arrive in the
	// Authorization header
	_ = c.Bind(&req)

	action := req.Action
	if action == "" {
		action = "verify"
	}

	token := req.Token
	if token == "" {
		token = bearerToken(c)
	}

	if action == "destroy" {
		a.cookies.Destroy(c)
		return c.JSON(http.StatusOK, map[string]any{
			"success":   true,
			"message":   "Session destroyed successfully",
			"action":    "destroy",
			"timestamp": timestamp(),
		})
	}

	if token == "" {
		return c.JSON(http.StatusBadRequest, errorBody("No JWT token provided"))
	}

	claims, verr := a.verifier.Verify(c.Request().Context(), token)
	if verr != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"error":     "Token verification failed",
			"details":   verr.Detail,
			"reason":    verr.Reason,
			"timestamp": timestamp(),
		})
	}

	a.cookies.Issue(c, token, claims)

	message := "Token verified successfully"
	if action == "create" {
		message = "JWT verified successfully"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"message":   message,
		"action":    action,
		"user":      userView(claims),
		"timestamp": timestamp(),
		"verification": map[string]any{
			"method":            "JWKS + RSA-SHA256 signature verification",
			"jwksEndpoint":      a.cfg.Dynamic.ResolveJwksURL(),
			"environmentId":     a.cfg.Dynamic.EnvironmentID,
			"signatureVerified": true,
			"jwksVerified":      true,
			"issuer":            claims.Issuer,
			"audience":          audienceView(claims),
		},
	})
}

// SessionStatusEndpoint reports the state of the session cookie.
func (a *API) SessionStatusEndpoint(c echo.Context) error {
	token, err := a.cookies.Read(c)
	if err != nil || token == "" {
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"authenticated": false,
			"message":       "No Dynamic JWT cookie found",
			"timestamp":     timestamp(),
		})
	}

	claims, verr := a.verifier.Verify(c.Request().Context(), token)
	if verr != nil {
		return c.JSON(http.StatusUnauthorized, map[string]any{
			"authenticated": false,
			"message":       "Invalid JWT in cookie",
			"details":       verr.Detail,
			"timestamp":     timestamp(),
		})
	}

	var expiresAt any
	var timeRemaining int64
	if !claims.ExpiresAt.IsZero() {
		expiresAt = claims.ExpiresAt.UTC().Format(time.RFC3339)
		timeRemaining = claims.ExpiresAt.Unix() - time.Now().Unix()
	}

	return c.JSON(http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          userView(claims),
		"session": map[string]any{
			"expiresAt":     expiresAt,
			"timeRemaining": timeRemaining,
			"issuer":        claims.Issuer,
		},
		"timestamp": timestamp(),
	})
}

func userView(claims *tokens.Claims) map[string]any {
	view := map[string]any{
		"id":            claims.Subject,
		"email":         claims.Email,
		"environmentId": claims.EnvironmentID,
	}
	if credential := claims.FirstCredential(); credential != nil {
		view["walletAddress"] = credential.Address
		view["walletProvider"] = credential.WalletProvider
		view["chain"] = credential.Chain
	}
	return view
}

// audienceView keeps the original single-value shape when the token carries
// exactly one audience.
func audienceView(claims *tokens.Claims) any {
	if len(claims.Audience) == 1 {
		return claims.Audience[0]
	}
	return claims.Audience
}
