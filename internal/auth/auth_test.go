package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("s3cret-", 10)

func sign(t *testing.T, alg jose.SignatureAlgorithm, key []byte, c any) string {
	t.Helper()
	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: alg, Key: key}, nil)
	require.NoError(t, err)
	tok, err := jwt.Signed(sig).Claims(c).Serialize()
	require.NoError(t, err)
	return tok
}

func TestIssueThenVerify(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	tok, err := Issue(testSecret, "user-1", time.Hour)
	require.NoError(t, err)

	user, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", user)
}

func TestVerifyAcceptsUserIDClaim(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	tok := sign(t, jose.HS256, []byte(testSecret), map[string]any{"userId": "42", "email": "a@b.c"})
	user, err := v.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "42", user)
}

func TestVerifyRejects(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	other := strings.Repeat("other-", 12)
	wrongKey, err := Issue(other, "user-1", time.Hour)
	require.NoError(t, err)

	noSubject := sign(t, jose.HS256, []byte(testSecret), jwt.Claims{Issuer: "me"})
	wrongAlg := sign(t, jose.HS512, []byte(testSecret+testSecret), jwt.Claims{Subject: "user-1"})

	expired := sign(t, jose.HS256, []byte(testSecret), jwt.Claims{
		Subject: "user-1",
		Expiry:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})
	notYet := sign(t, jose.HS256, []byte(testSecret), jwt.Claims{
		Subject:   "user-1",
		NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong key":    wrongKey,
		"no subject":   noSubject,
		"wrong alg":    wrongAlg,
		"expired":      expired,
		"not yet":      notYet,
		"tampered":     wrongKey[:len(wrongKey)-2] + "xx",
		"bad segments": "a.b.c",
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(tok)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestIssuedTokenExpires(t *testing.T) {
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)

	tok, err := Issue(testSecret, "user-1", time.Minute)
	require.NoError(t, err)

	v.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = v.Verify(tok)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestEmptySecret(t *testing.T) {
	_, err := NewVerifier("")
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = Issue("", "u", time.Hour)
	assert.ErrorIs(t, err, ErrNoSecret)
}
