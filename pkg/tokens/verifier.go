package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Reason classifies a verification failure.
type Reason string

const (
	ReasonMalformed          Reason = "malformed"
	ReasonKeySetUnavailable  Reason = "key_set_unavailable"
	ReasonSignatureInvalid   Reason = "signature_invalid"
	ReasonIssuerNotAllowed   Reason = "issuer_not_allowed"
	ReasonAudienceNotAllowed Reason = "audience_not_allowed"
	ReasonExpired            Reason = "expired"
)

// VerificationError is the only error type Verify returns. It never wraps a
// panic and always carries a human-readable detail.
type VerificationError struct {
	Reason Reason
	Detail string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("token verification failed (%s): %s", e.Reason, e.Detail)
}

func verificationError(reason Reason, format string, a ...any) *VerificationError {
	return &VerificationError{Reason: reason, Detail: fmt.Sprintf(format, a...)}
}

type VerifierConfig struct {
	JwksURL   string
	Issuers   []string
	Audiences []string
}

// Verifier validates Dynamic tokens against the provider's published signing
// keys. The key cache refreshes itself in the background; correctness does
// not depend on its freshness beyond eventually reflecting the provider's
// current keys.
type Verifier struct {
	cfg      VerifierConfig
	keyCache *jwk.Cache
}

func NewVerifier(ctx context.Context, cfg VerifierConfig) (*Verifier, error) {
	if cfg.JwksURL == "" {
		return nil, errors.New("jwks url is required")
	}

	v := &Verifier{cfg: cfg}

	// auto-refreshing signing key cache
	v.keyCache = jwk.NewCache(ctx)
	if err := v.keyCache.Register(cfg.JwksURL, jwk.WithMinRefreshInterval(15*time.Minute)); err != nil {
		return nil, fmt.Errorf("register jwks url: %w", err)
	}
	if _, err := v.keyCache.Refresh(ctx, cfg.JwksURL); err != nil {
		return nil, fmt.Errorf("failed to fetch signing keys from %s: %w", cfg.JwksURL, err)
	}

	return v, nil
}

// Verify parses and validates the serialized token: signature against the
// remote key set, exp/iat with the library's default skew, then issuer and
// audience membership in the configured allow-lists.
func (v *Verifier) Verify(ctx context.Context, serialized string) (*Claims, *VerificationError) {
	// structural check first, so garbage input is reported as malformed
	// rather than as a signature failure
	if _, err := jwt.ParseString(serialized, jwt.WithVerify(false), jwt.WithValidate(false)); err != nil {
		return nil, verificationError(ReasonMalformed, "unable to parse token: %v", err)
	}

	keySet, err := v.keyCache.Get(ctx, v.cfg.JwksURL)
	if err != nil {
		return nil, verificationError(ReasonKeySetUnavailable, "unable to get key set: %v", err)
	}

	token, err := jwt.ParseString(
		serialized,
		jwt.WithKeySet(keySet, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, classifyParseError(err)
	}

	if !contains(v.cfg.Issuers, token.Issuer()) {
		return nil, verificationError(ReasonIssuerNotAllowed, "issuer %q is not in the allow-list", token.Issuer())
	}

	if !intersects(v.cfg.Audiences, token.Audience()) {
		return nil, verificationError(ReasonAudienceNotAllowed, "audience %v is not in the allow-list", token.Audience())
	}

	return claimsFromToken(token), nil
}

func classifyParseError(err error) *VerificationError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired()):
		return verificationError(ReasonExpired, "token is expired: %v", err)
	case errors.Is(err, jwt.ErrTokenNotYetValid()), errors.Is(err, jwt.ErrInvalidIssuedAt()):
		return verificationError(ReasonExpired, "token time claims are not plausible: %v", err)
	default:
		return verificationError(ReasonSignatureInvalid, "signature verification failed: %v", err)
	}
}

// Decode parses the token without verifying the signature or validating any
// claims. Callers must treat the result as untrusted input.
func Decode(serialized string) (*Claims, error) {
	token, err := jwt.ParseString(serialized, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, fmt.Errorf("unable to decode token: %w", err)
	}
	return claimsFromToken(token), nil
}

func contains(allowed []string, value string) bool {
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}

func intersects(allowed, actual []string) bool {
	for _, a := range actual {
		if contains(allowed, a) {
			return true
		}
	}
	return false
}
