// Package auth issues and verifies the bearer credentials clients present
// on every request. Tokens are HMAC-signed values; the gateway holds no
// mutable state.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/akarpov/Mingle/internal/core"
	"github.com/akarpov/Mingle/internal/domain"
)

const tokenName = "mingle_token"

var ErrNoSecret = errors.New("signing secret is not configured")

type claims struct {
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

type Gateway struct {
	codec      *securecookie.SecureCookie
	defaultTTL time.Duration
}

// NewGateway fails on an empty secret; callers treat that as a fatal
// startup condition.
func NewGateway(secret string, defaultTTL time.Duration) (*Gateway, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	codec := securecookie.New([]byte(secret), nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	// Expiry is enforced on our own exp claim, not securecookie's timestamp.
	codec.MaxAge(0)
	return &Gateway{codec: codec, defaultTTL: defaultTTL}, nil
}

// Issue encodes a signed credential for the subject. ttl <= 0 means the
// gateway default.
func (g *Gateway) Issue(identity domain.UserID, ttl time.Duration) (string, error) {
	if err := domain.ValidateUserID(identity); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	if ttl <= 0 {
		ttl = g.defaultTTL
	}
	now := time.Now()
	c := claims{
		Subject:   string(identity),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	tok, err := g.codec.Encode(tokenName, c)
	if err != nil {
		return "", fmt.Errorf("encode credential: %w", err)
	}
	return tok, nil
}

// Verify returns the subject identity of a valid credential.
func (g *Gateway) Verify(credential string) (domain.UserID, error) {
	var c claims
	if err := g.codec.Decode(tokenName, credential, &c); err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrAuthInvalid, err)
	}
	if c.Subject == "" {
		return "", core.ErrAuthInvalid
	}
	if time.Now().Unix() >= c.ExpiresAt {
		return "", core.ErrAuthExpired
	}
	return domain.UserID(c.Subject), nil
}

func (g *Gateway) DefaultTTL() time.Duration { return g.defaultTTL }
