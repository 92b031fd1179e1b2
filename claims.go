package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. Access tokens leave the claim empty; reset tokens carry
// TokenPurposeReset and are rejected by the Guard so a reset token can never
// act as a session token.
const (
	TokenPurposeAccess = ""
	TokenPurposeReset  = "reset"
)

// AccessClaims is the read side of a parsed token
type AccessClaims interface {
	Email() string
	Version() int
	IsReset() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete claim set carried by every minted token.
//
// TokenVersion is the freshness claim: a token is only honored while it
// matches the account's current counter. Tokens minted before the claim
// existed omit it; the zero value keeps them readable as version 0, which is
// the documented backward-compatibility rule, not a parser accident.
type JWTClaims struct {
	jwt.RegisteredClaims
	TokenVersion int    `json:"token_version"`
	Purpose      string `json:"purpose,omitempty"`
}

var _ AccessClaims = (*JWTClaims)(nil)

// Email returns the identity claim
func (c *JWTClaims) Email() string {
	return c.RegisteredClaims.Subject
}

// Version returns the token-version claim, zero when absent
func (c *JWTClaims) Version() int {
	return c.TokenVersion
}

// IsReset reports whether this token was minted for a password reset
func (c *JWTClaims) IsReset() bool {
	return c.Purpose == TokenPurposeReset
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
