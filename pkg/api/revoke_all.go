package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/zurikai/wallet-gateway/pkg/dynamicapi"
	"github.com/zurikai/wallet-gateway/pkg/revoker"
	"github.com/zurikai/wallet-gateway/pkg/tokens"
)

var upgrader = websocket.Upgrader{}

type revokeAllRequest struct {
	Token string `json:"token"`
}

// RevokeAllEndpoint runs the revoke-all-but-current workflow for the holder
// of the supplied token. The token may arrive in the body, the Authorization
// header or the session cookie, in that order of precedence.
func (a *API) RevokeAllEndpoint(c echo.Context) error {
	token := a.requestToken(c)
	if token == "" {
		return c.JSON(http.StatusBadRequest, errorBody("No JWT token provided"))
	}

	report, err := a.newRunner(nil).Run(c.Request().Context(), token)
	if err != nil {
		status := http.StatusBadRequest
		var upstreamErr *dynamicapi.UpstreamError
		if errors.As(err, &upstreamErr) {
			status = http.StatusBadGateway
		}
		return c.JSON(status, map[string]any{
			"error":  err.Error(),
			"report": report,
		})
	}

	return c.JSON(http.StatusOK, report)
}

type watchFrame struct {
	Type   string          `json:"type"`
	Entry  *revoker.Entry  `json:"entry,omitempty"`
	Report *revoker.Report `json:"report,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type watchStartMessage struct {
	Token string `json:"token"`
}

// WatchRevokeAllEndpoint is the live variant of RevokeAllEndpoint. The
// client opens a WebSocket, sends {"token": ...} and receives one frame per
// log entry, then a final report frame. Browsers cannot set headers on
// WebSocket upgrades, hence the token in the first message.
func (a *API) WatchRevokeAllEndpoint(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	var start watchStartMessage
	if err := ws.ReadJSON(&start); err != nil {
		_ = ws.WriteJSON(watchFrame{Type: "error", Error: "expected a JSON start message with a token"})
		return nil
	}
	if start.Token == "" {
		_ = ws.WriteJSON(watchFrame{Type: "error", Error: "No JWT token provided"})
		return nil
	}

	runner := a.newRunner(func(entry revoker.Entry) {
		_ = ws.WriteJSON(watchFrame{Type: "log", Entry: &entry})
	})

	report, runErr := runner.Run(c.Request().Context(), start.Token)
	if runErr != nil {
		_ = ws.WriteJSON(watchFrame{Type: "error", Error: runErr.Error(), Report: report})
		return nil
	}

	_ = ws.WriteJSON(watchFrame{Type: "report", Report: report})
	return nil
}

type inspectTokenRequest struct {
	Token string `json:"token"`
}

// InspectTokenEndpoint decodes a token without verification, for debugging.
func (a *API) InspectTokenEndpoint(c echo.Context) error {
	var req inspectTokenRequest
	_ = c.Bind(&req)

	token := req.Token
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		return c.JSON(http.StatusBadRequest, errorBody("No JWT token provided"))
	}

	inspection, err := tokens.Inspect(token)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"header":    inspection.Header,
		"payload":   inspection.Payload,
		"signature": inspection.Signature,
		"text":      inspection.Text(),
		"warning":   "signature not verified",
	})
}

// requestToken resolves the caller's token: body, then Authorization header,
// then session cookie.
func (a *API) requestToken(c echo.Context) string {
	var req revokeAllRequest
	_ = c.Bind(&req)
	if req.Token != "" {
		return req.Token
	}
	if token := bearerToken(c); token != "" {
		return token
	}
	if token, err := a.cookies.Read(c); err == nil {
		return token
	}
	return ""
}
