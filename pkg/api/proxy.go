package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zurikai/wallet-gateway/pkg/dynamicapi"
)

type createWalletRequest struct {
	Identifier string   `json:"identifier"`
	Type       string   `json:"type"`
	Chains     []string `json:"chains"`
}

// CreateWalletEndpoint provisions an embedded wallet through the vendor's
// WaaS API. The response is a verbatim passthrough of the vendor's answer.
func (a *API) CreateWalletEndpoint(c echo.Context) error {
	var req createWalletRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}

	if req.Identifier == "" {
		return c.JSON(http.StatusBadRequest, errorBody("Identifier is required"))
	}
	if req.Type == "" {
		return c.JSON(http.StatusBadRequest, errorBody(`Type is required (e.g., "email")`))
	}

	if err := a.requireVendorConfig(c, true); err != nil {
		return err
	}

	upstream, err := a.vendor.CreateWallet(c.Request().Context(), dynamicapi.CreateWalletRequest{
		Identifier: req.Identifier,
		Type:       req.Type,
		Chains:     req.Chains,
	})
	if err != nil {
		return internalError(c, err)
	}

	return passthrough(c, upstream)
}

// GetUserEndpoint fetches a user record, including its sessions, by id.
func (a *API) GetUserEndpoint(c echo.Context) error {
	userID := c.QueryParam("userId")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("User ID is required"))
	}

	if err := a.requireVendorConfig(c, true); err != nil {
		return err
	}

	upstream, err := a.vendor.GetUser(c.Request().Context(), userID)
	if err != nil {
		return internalError(c, err)
	}

	return passthrough(c, upstream)
}

type revokeSessionRequest struct {
	SessionID string `json:"sessionId"`
}

// RevokeSessionEndpoint revokes a single vendor session. The session id
// travels in the body; the revoke URL does not depend on the environment id.
func (a *API) RevokeSessionEndpoint(c echo.Context) error {
	var req revokeSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("Invalid request body"))
	}

	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("Session ID is required"))
	}

	if err := a.requireVendorConfig(c, false); err != nil {
		return err
	}

	upstream, err := a.vendor.RevokeSession(c.Request().Context(), req.SessionID)
	if err != nil {
		return internalError(c, err)
	}

	return passthrough(c, upstream)
}
