package api_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurikai/wallet-gateway/pkg/dynamicapi"
)

func userWithSessions() *dynamicapi.User {
	revokedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &dynamicapi.User{
		ID: "user-1",
		Sessions: []dynamicapi.Session{
			{ID: "s-1"},
			{ID: "s-2"},
			{ID: "s-3", RevokedAt: &revokedAt},
		},
	}
}

func TestRevokeAllEndpoint(t *testing.T) {
	vendor := &fakeVendor{user: userWithSessions()}
	a := newTestAPI(testConfig(), vendor, &fakeVerifier{})

	token := mintToken(t, map[string]any{"sub": "user-1", "sid": "s-1"})
	req := jsonRequest(http.MethodPost, "/api/revoke-sessions", `{"token":"`+token+`"}`)
	rec, body := invoke(t, a.RevokeAllEndpoint, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", body["state"])
	assert.Equal(t, float64(1), body["revoked"])
	assert.Equal(t, float64(0), body["failed"])
	assert.Equal(t, []string{"s-2"}, vendor.revoked)
}

func TestRevokeAllReportsPartialFailure(t *testing.T) {
	vendor := &fakeVendor{
		user: &dynamicapi.User{
			ID: "user-1",
			Sessions: []dynamicapi.Session{
				{ID: "s-1"},
				{ID: "s-2"},
				{ID: "s-3"},
			},
		},
		revokeErr: map[string]error{"s-2": errors.New("vendor said no")},
	}
	a := newTestAPI(testConfig(), vendor, &fakeVerifier{})

	token := mintToken(t, map[string]any{"sub": "user-1", "sid": "s-1"})
	req := jsonRequest(http.MethodPost, "/api/revoke-sessions", `{"token":"`+token+`"}`)
	rec, body := invoke(t, a.RevokeAllEndpoint, req)

	assert.Equal(t, http.StatusOK, rec.Code, "partial completion is a reported outcome, not an error")
	assert.Equal(t, float64(1), body["revoked"])
	assert.Equal(t, float64(1), body["failed"])
}

func TestRevokeAllWithoutToken(t *testing.T) {
	vendor := &fakeVendor{}
	a := newTestAPI(testConfig(), vendor, &fakeVerifier{})

	req := jsonRequest(http.MethodPost, "/api/revoke-sessions", `{}`)
	rec, body := invoke(t, a.RevokeAllEndpoint, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No JWT token provided", body["error"])
	assert.Zero(t, vendor.calls)
}

func TestRevokeAllAbortOnMissingIdentifiers(t *testing.T) {
	vendor := &fakeVendor{}
	a := newTestAPI(testConfig(), vendor, &fakeVerifier{})

	// token without a session id
	token := mintToken(t, map[string]any{"sub": "user-1"})
	req := jsonRequest(http.MethodPost, "/api/revoke-sessions", `{"token":"`+token+`"}`)
	rec, body := invoke(t, a.RevokeAllEndpoint, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body, "report")
	assert.Zero(t, vendor.calls)
}

func TestRevokeAllUpstreamFailure(t *testing.T) {
	vendor := &fakeVendor{
		err: &dynamicapi.UpstreamError{StatusCode: http.StatusServiceUnavailable, Body: []byte("down")},
	}
	a := newTestAPI(testConfig(), vendor, &fakeVerifier{})

	token := mintToken(t, map[string]any{"sub": "user-1", "sid": "s-1"})
	req := jsonRequest(http.MethodPost, "/api/revoke-sessions", `{"token":"`+token+`"}`)
	rec, _ := invoke(t, a.RevokeAllEndpoint, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestWatchRevokeAllStreamsLogAndReport(t *testing.T) {
	vendor := &fakeVendor{user: userWithSessions()}
	a := newTestAPI(testConfig(), vendor, &fakeVerifier{})

	e := echo.New()
	e.GET("/api/revoke-sessions/watch", a.WatchRevokeAllEndpoint)
	server := httptest.NewServer(e)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/revoke-sessions/watch"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	token := mintToken(t, map[string]any{"sub": "user-1", "sid": "s-1"})
	require.NoError(t, conn.WriteJSON(map[string]string{"token": token}))

	var sawLog bool
	for {
		var frame map[string]any
		require.NoError(t, conn.ReadJSON(&frame))

		switch frame["type"] {
		case "log":
			sawLog = true
		case "report":
			report := frame["report"].(map[string]any)
			assert.Equal(t, "completed", report["state"])
			assert.Equal(t, float64(1), report["revoked"])
			assert.True(t, sawLog, "log frames must arrive before the report")
			return
		case "error":
			t.Fatalf("unexpected error frame: %v", frame)
		}
	}
}
