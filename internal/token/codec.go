// Package token reads claims out of backend-issued bearer tokens.
//
// The gateway never verifies signatures: tokens are opaque credentials minted
// and validated by the identity API, and the only claim the session lifecycle
// needs is expiry. A decode failure is a local fact ("freshness unknown"),
// never a session-fatal condition.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "caregate/pkg/domain-errors"
)

// Codec decodes claims from JWT-encoded access tokens.
type Codec struct {
	parser *jwt.Parser
}

// NewCodec constructs a Codec.
func NewCodec() *Codec {
	return &Codec{parser: jwt.NewParser()}
}

// DecodeExpiry returns the exp claim of a JWT-encoded token. The signature is
// not checked. Returns a decode_error when the token is not well-formed JWT
// or carries no exp claim.
func (c *Codec) DecodeExpiry(tokenString string) (time.Time, error) {
	parsed, _, err := c.parser.ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeDecode, "access token is not well-formed")
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeDecode, "access token exp claim is malformed")
	}
	if exp == nil {
		return time.Time{}, dErrors.New(dErrors.CodeDecode, "access token has no exp claim")
	}

	return exp.Time, nil
}
