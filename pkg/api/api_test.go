package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/require"

	"github.com/zurikai/wallet-gateway/pkg/api"
	"github.com/zurikai/wallet-gateway/pkg/config"
	"github.com/zurikai/wallet-gateway/pkg/dynamicapi"
	"github.com/zurikai/wallet-gateway/pkg/session"
	"github.com/zurikai/wallet-gateway/pkg/tokens"
)

// fakeVendor counts calls so tests can assert that configuration errors are
// reported before any network call.
type fakeVendor struct {
	calls    int
	upstream *dynamicapi.Upstream
	err      error

	user      *dynamicapi.User
	revokeErr map[string]error
	revoked   []string
}

func (f *fakeVendor) CreateWallet(ctx context.Context, req dynamicapi.CreateWalletRequest) (*dynamicapi.Upstream, error) {
	f.calls++
	return f.upstream, f.err
}

func (f *fakeVendor) GetUser(ctx context.Context, userID string) (*dynamicapi.Upstream, error) {
	f.calls++
	return f.upstream, f.err
}

func (f *fakeVendor) RevokeSession(ctx context.Context, sessionID string) (*dynamicapi.Upstream, error) {
	f.calls++
	return f.upstream, f.err
}

func (f *fakeVendor) FetchUser(ctx context.Context, userID string) (*dynamicapi.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func (f *fakeVendor) Revoke(ctx context.Context, sessionID string) error {
	f.calls++
	f.revoked = append(f.revoked, sessionID)
	if err, ok := f.revokeErr[sessionID]; ok {
		return err
	}
	return nil
}

// fakeVerifier answers with fixed claims or a fixed failure.
type fakeVerifier struct {
	claims *tokens.Claims
	verr   *tokens.VerificationError
	calls  int
}

func (f *fakeVerifier) Verify(ctx context.Context, serialized string) (*tokens.Claims, *tokens.VerificationError) {
	f.calls++
	if f.verr != nil {
		return nil, f.verr
	}
	return f.claims, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Dynamic.BearerToken = "secret"
	cfg.Dynamic.EnvironmentID = "env-1"
	cfg.Revoke.Interval = config.Duration(time.Millisecond)
	return cfg
}

func newTestAPI(cfg *config.Config, vendor *fakeVendor, verifier *fakeVerifier) *api.API {
	cookies := session.NewIssuer(session.Config{Name: cfg.Cookie.Name})
	return api.New(cfg, vendor, verifier, cookies)
}

func jsonRequest(method, target, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return req
}

func invoke(t *testing.T, handler echo.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func mintToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	builder := jwt.NewBuilder().Expiration(time.Now().Add(time.Hour))
	for name, value := range claims {
		builder = builder.Claim(name, value)
	}
	token, err := builder.Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte("test-secret")))
	require.NoError(t, err)
	return string(signed)
}
