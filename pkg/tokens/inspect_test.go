package tokens_test

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurikai/wallet-gateway/pkg/tokens"
)

func TestInspect(t *testing.T) {
	keys := newTestKeys(t)
	defer keys.close()

	serialized := keys.sign(t, jwt.NewBuilder().
		Subject("user-1").
		Issuer("dynamic.xyz").
		Expiration(time.Now().Add(time.Hour)).
		Claim("sid", "session-1"))

	inspection, err := tokens.Inspect(serialized)
	require.NoError(t, err)

	assert.Equal(t, "RS256", inspection.Header["alg"])
	assert.Equal(t, "user-1", inspection.Payload["sub"])
	assert.Equal(t, "session-1", inspection.Payload["sid"])
	assert.NotEmpty(t, inspection.Signature)
	assert.Contains(t, inspection.Text(), "base64url(")
}

func TestInspectRejectsNonCompactInput(t *testing.T) {
	_, err := tokens.Inspect("only.two")
	assert.Error(t, err)

	_, err = tokens.Inspect("not a token at all")
	assert.Error(t, err)
}
