// Package auth checks the access tokens clients present when they connect.
//
// Tokens are HS256-signed JWTs. The user id is read from the standard "sub"
// claim, or from a "userId" claim as issued by the account service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSecret     = errors.New("empty signing secret")
)

type claims struct {
	jwt.Claims
	UserID string `json:"userId,omitempty"`
}

// Verifier validates tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Verify returns the user id carried by token. Every failure wraps
// ErrUnauthorized.
func (v *Verifier) Verify(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	tok, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	var c claims
	if err := tok.Claims(v.secret, &c); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if err := c.ValidateWithLeeway(jwt.Expected{Time: v.now()}, 0); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	user := c.Subject
	if user == "" {
		user = c.UserID
	}
	if user == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return user, nil
}

// Issue signs a token for userID valid for ttl. A zero ttl never expires.
func Issue(secret, userID string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrNoSecret
	}
	sig, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: []byte(secret)},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	now := time.Now()
	c := claims{
		Claims: jwt.Claims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: userID,
	}
	if ttl > 0 {
		c.Expiry = jwt.NewNumericDate(now.Add(ttl))
	}

	token, err := jwt.Signed(sig).Claims(c).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}
