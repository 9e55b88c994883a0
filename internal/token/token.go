// Package token signs and verifies the bearer tokens handed out by the
// gateway. The plaintext key is never stored in a token: the claim is a salted
// one-way digest that is re-derived from the live key on every check.
package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

const saltSuffix = "-lsd93ufifmdk934mI79wsu"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrKeyMismatch  = errors.New("wrong api key")
)

// Claim is the only content of a gateway token.
type Claim struct {
	Payload string `json:"payload"`
	jwt.RegisteredClaims
}

// Codec holds the process secret and the configured key. It is immutable.
type Codec struct {
	secret []byte
	salt   string
	key    string
}

// New returns a Codec for the given secret and authorized key.
func New(secret, key string) *Codec {
	return &Codec{
		secret: []byte(secret),
		salt:   secret + saltSuffix,
		key:    key,
	}
}

// Hash returns the hex digest of value concatenated with the derived salt.
func (c *Codec) Hash(value string) string {
	sum := sha256.Sum256([]byte(value + c.salt))
	return hex.EncodeToString(sum[:])
}

// Sign encodes {payload} with HS256.
func (c *Codec) Sign(payload string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claim{Payload: payload})
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and algorithm of a token. Expiry is not
// enforced.
func (c *Codec) Verify(tokenString string) (Claim, error) {
	var claim Claim
	_, err := jwt.ParseWithClaims(tokenString, &claim, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claim{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claim, nil
}

// Issue mints a token for key when it equals the configured key.
func (c *Codec) Issue(key string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(key), []byte(c.key)) != 1 {
		return "", ErrKeyMismatch
	}
	return c.Sign(c.Hash(key))
}

// Authorize accepts a token iff it verifies and its payload equals the hash of
// the currently configured key.
func (c *Codec) Authorize(tokenString string) error {
	claim, err := c.Verify(tokenString)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(claim.Payload), []byte(c.Hash(c.key))) != 1 {
		return ErrInvalidToken
	}
	return nil
}
