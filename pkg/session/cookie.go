package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/zurikai/wallet-gateway/pkg/tokens"
)

const defaultFallbackTTL = 24 * time.Hour

type Config struct {
	Name string
	// Production switches the cookie to HttpOnly, Secure and SameSite
	// Strict, and scopes it to Domain for subdomain sharing.
	Production  bool
	Domain      string
	FallbackTTL time.Duration
}

// Issuer writes and clears the session cookie. The cookie carries the raw
// verified token; its lifetime equals the token's remaining validity.
type Issuer struct {
	cfg      Config
	template *http.Cookie
	now      func() time.Time
}

func NewIssuer(cfg Config) *Issuer {
	if cfg.FallbackTTL <= 0 {
		cfg.FallbackTTL = defaultFallbackTTL
	}

	template := &http.Cookie{
		Name:     cfg.Name,
		Path:     "/",
		HttpOnly: cfg.Production,
		Secure:   cfg.Production,
		SameSite: http.SameSiteLaxMode,
	}
	if cfg.Production {
		template.SameSite = http.SameSiteStrictMode
		template.Domain = cfg.Domain
	}

	return &Issuer{
		cfg:      cfg,
		template: template,
		now:      time.Now,
	}
}

// Issue sets the session cookie from a verified claim set. MaxAge is
// exp - now, never negative; a token without exp gets the fallback window.
func (i *Issuer) Issue(c echo.Context, rawToken string, claims *tokens.Claims) {
	now := i.now()

	expiresAt := claims.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(i.cfg.FallbackTTL)
	}

	maxAge := int(expiresAt.Unix() - now.Unix())
	if maxAge < 0 {
		maxAge = 0
	}

	cookie := *i.template
	cookie.Value = rawToken
	cookie.MaxAge = maxAge
	c.SetCookie(&cookie)
}

// Destroy clears the cookie unconditionally. No token verification is
// required to log out.
func (i *Issuer) Destroy(c echo.Context) {
	cookie := *i.template
	cookie.Value = ""
	cookie.MaxAge = -1
	c.SetCookie(&cookie)
}

// Read returns the raw token held by the session cookie.
func (i *Issuer) Read(c echo.Context) (string, error) {
	cookie, err := c.Cookie(i.cfg.Name)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}
