package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService mints and validates the signed bearer tokens issued on login
// and for password resets
type TokenService interface {
	Mint(email string, tokenVersion int) (string, error)
	MintResetToken(email string) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(raw string) (*JWTClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey    []byte
	signingMethod jwt.SigningMethod
	ttl           time.Duration
	issuer        string
	logger        Logger
}

// NewTokenService creates a new TokenService instance. Expiration is in
// minutes; the signing key and method are process-wide configuration.
func NewTokenService(signingKey []byte, methodAlg string, expirationMinutes int, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}

	method := jwt.GetSigningMethod(methodAlg)
	if method == nil {
		method = jwt.SigningMethodHS256
	}

	return &TokenServiceImpl{
		signingKey:    signingKey,
		signingMethod: method,
		ttl:           time.Duration(expirationMinutes) * time.Minute,
		issuer:        issuer,
		logger:        logger,
	}
}

// Mint creates an access token carrying the identity claim and the account's
// current token version
func (ts *TokenServiceImpl) Mint(email string, tokenVersion int) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		TokenVersion: tokenVersion,
	}

	return ts.SignClaims(claims)
}

// MintResetToken creates a token marked with the reset purpose. The Guard
// rejects these, so a leaked reset token cannot open a session.
func (ts *TokenServiceImpl) MintResetToken(email string) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		Purpose: TokenPurposeReset,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary claims using the configured signing key
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(ts.signingMethod, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a raw token string, returning its claims.
// A missing token_version claim reads as version 0.
func (ts *TokenServiceImpl) Validate(raw string) (*JWTClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(raw, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != ts.signingMethod.Alg() {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}
