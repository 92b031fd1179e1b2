package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Requirement describes what a protected route demands from the caller.
// The zero value requires an active account and nothing else.
type Requirement struct {
	MinRole       UserRole
	RequireActive bool
}

// ResolveOption tunes the Requirement for a single Resolve call
type ResolveOption func(*Requirement)

// WithMinRole requires the resolved account to hold at least the given role
func WithMinRole(role UserRole) ResolveOption {
	return func(r *Requirement) {
		r.MinRole = role
	}
}

// WithoutActiveCheck skips the activation gate. Only the login path should
// need this; it verifies credentials before looking at status.
func WithoutActiveCheck() ResolveOption {
	return func(r *Requirement) {
		r.RequireActive = false
	}
}

// Guard is the session authority: it turns a raw bearer token into a
// resolved account, or a structured authorization error.
//
// Resolution is stateless and re-evaluated on every call. The account is
// always re-read from the store, so a token-version bump or deactivation is
// effective on the very next request with no cache to invalidate.
type Guard struct {
	tokens TokenValidator
	store  UserStore
	logger Logger
}

// NewGuard returns a new Guard
func NewGuard(tokens TokenValidator, store UserStore) *Guard {
	return &Guard{
		tokens: tokens,
		store:  store,
		logger: defLogger{},
	}
}

func (g *Guard) WithLogger(logger Logger) *Guard {
	g.logger = logger
	return g
}

// Resolve validates the bearer token and returns the account it belongs to.
//
// The checks run in order: token signature/expiry, reset-purpose rejection,
// account lookup, activation status, token version, then the optional role
// gate. Each failure maps to the narrowest error in the taxonomy.
func (g *Guard) Resolve(ctx context.Context, rawToken string, opts ...ResolveOption) (*User, error) {
	req := Requirement{RequireActive: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&req)
		}
	}

	claims, err := g.tokens.Validate(rawToken)
	if err != nil {
		g.logger.Debug("guard token validation failed", "error", err)
		return nil, invalidCredentials(err)
	}

	if claims.IsReset() {
		// a reset token is not a session token, full stop
		g.logger.Warn("guard rejected reset-purpose token", "email", claims.Email())
		return nil, ErrInvalidCredentials
	}

	if claims.Email() == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := g.store.GetByEmail(ctx, claims.Email())
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve account for token")
	}

	if req.RequireActive && !user.IsActive() {
		return nil, ErrNotActivated
	}

	if user.TokenVersion != claims.Version() {
		return nil, ErrTokenRevoked
	}

	if req.MinRole != "" && !user.Role.IsAtLeast(req.MinRole) {
		return nil, ErrForbidden
	}

	return user, nil
}

// invalidCredentials folds any token parse failure into the 401 taxonomy
// while keeping the cause for callers that inspect error chains
func invalidCredentials(cause error) error {
	return errors.Wrap(cause, ErrInvalidCredentials.Category, ErrInvalidCredentials.Message).
		WithTextCode(ErrInvalidCredentials.TextCode).
		WithCode(ErrInvalidCredentials.Code)
}
