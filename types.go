package accounts

import "fmt"

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds process-wide options, loaded once at startup and never
// mutated afterwards
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	GetTokenExpiration() int
	GetIssuer() string
	GetAdminEmail() string
	GetAdminPassword() string
	GetAppURL() string
	PasswordResetEnabled() bool
}

// TokenValidator validates raw bearer tokens. The Guard only needs the read
// side of the TokenService.
type TokenValidator interface {
	Validate(raw string) (*JWTClaims, error)
}

// ResetMailer delivers password-reset notifications. Delivery is
// best-effort; failures are logged and never fail the request.
type ResetMailer interface {
	SendResetEmail(email, token string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
