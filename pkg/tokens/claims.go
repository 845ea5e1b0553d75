package tokens

import (
	"encoding/json"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// VerifiedCredential is one entry of the token's verified_credentials claim.
type VerifiedCredential struct {
	Type           string `json:"type"`
	Format         string `json:"format"`
	Address        string `json:"address"`
	Chain          string `json:"chain"`
	WalletName     string `json:"wallet_name,omitempty"`
	WalletProvider string `json:"wallet_provider,omitempty"`
}

// Claims is the decoded payload of a Dynamic token. The identity provider
// owns the token; this service only reads it.
type Claims struct {
	Subject             string
	Issuer              string
	Audience            []string
	ExpiresAt           time.Time
	IssuedAt            time.Time
	Email               string
	EnvironmentID       string
	WalletPublicKey     string
	VerifiedCredentials []VerifiedCredential

	sessionID string
	userID    string
}

// SessionID resolves the session identifier with the claim-name precedence
// sid > session_id > jti. Empty when none of the candidates is present.
func (c *Claims) SessionID() string {
	return c.sessionID
}

// UserID resolves the user identifier with the precedence sub > user_id.
func (c *Claims) UserID() string {
	return c.userID
}

// FirstCredential returns the first verified credential, which the vendor
// uses as the primary wallet of the account.
func (c *Claims) FirstCredential() *VerifiedCredential {
	if len(c.VerifiedCredentials) == 0 {
		return nil
	}
	return &c.VerifiedCredentials[0]
}

func claimsFromToken(token jwt.Token) *Claims {
	claims := &Claims{
		Subject:   token.Subject(),
		Issuer:    token.Issuer(),
		Audience:  token.Audience(),
		ExpiresAt: token.Expiration(),
		IssuedAt:  token.IssuedAt(),
	}

	claims.Email = stringClaim(token, "email")
	claims.EnvironmentID = stringClaim(token, "environment_id")
	claims.WalletPublicKey = stringClaim(token, "wallet_public_key")

	if raw, ok := token.Get("verified_credentials"); ok {
		// private claims come back as []interface{} of maps; a JSON
		// round-trip is the cheapest way into the typed slice
		if asJson, err := json.Marshal(raw); err == nil {
			var credentials []VerifiedCredential
			if err := json.Unmarshal(asJson, &credentials); err == nil {
				claims.VerifiedCredentials = credentials
			}
		}
	}

	claims.sessionID = firstStringClaim(token, "sid", "session_id")
	if claims.sessionID == "" {
		claims.sessionID = token.JwtID()
	}

	claims.userID = token.Subject()
	if claims.userID == "" {
		claims.userID = stringClaim(token, "user_id")
	}

	return claims
}

func stringClaim(token jwt.Token, name string) string {
	if raw, ok := token.Get(name); ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}

func firstStringClaim(token jwt.Token, names ...string) string {
	for _, name := range names {
		if s := stringClaim(token, name); s != "" {
			return s
		}
	}
	return ""
}
