package accounts

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside the HTTP status
const (
	TextCodeInvalidCreds   = "INVALID_CREDENTIALS"
	TextCodeNotActivated   = "NOT_ACTIVATED"
	TextCodeTokenRevoked   = "TOKEN_REVOKED"
	TextCodeTokenExpired   = "TOKEN_EXPIRED"
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	TextCodeForbidden      = "FORBIDDEN"
	TextCodeUserNotFound   = "USER_NOT_FOUND"
	TextCodeEmailTaken     = "EMAIL_TAKEN"
	TextCodeEmptyPassword  = "EMPTY_PASSWORD"
)

// ErrInvalidCredentials is returned for a bad login or an unresolvable token
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrNotActivated is returned when the account has not completed activation
var ErrNotActivated = errors.New("user is registered but not activated", errors.CategoryAuthz).
	WithTextCode(TextCodeNotActivated).
	WithCode(errors.CodeForbidden)

// ErrTokenRevoked is returned when the token version no longer matches the account
var ErrTokenRevoked = errors.New("token has been invalidated", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is the structured error for expired tokens
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is the structured error for tokens we cannot parse
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when the caller lacks the required role or is not
// acting on their own account
var ErrForbidden = errors.New("not authorized to perform this action", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrUserNotFound is returned when the target account does not exist
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailTaken is returned when the email is already registered
var ErrEmailTaken = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before they reach the hasher
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
