package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
)

// InitiatePasswordReset mints a reset-purpose token for the account and
// mails it out. The whole flow is stateless: the token itself is the reset
// session, and its purpose claim keeps it out of the Guard.
type InitiatePasswordReset struct {
	store  UserStore
	tokens TokenService
	mailer ResetMailer
	logger Logger
}

// NewInitiatePasswordReset returns the reset initializer
func NewInitiatePasswordReset(store UserStore, tokens TokenService, mailer ResetMailer) *InitiatePasswordReset {
	return &InitiatePasswordReset{
		store:  store,
		tokens: tokens,
		mailer: mailer,
		logger: defLogger{},
	}
}

func (h *InitiatePasswordReset) WithLogger(logger Logger) *InitiatePasswordReset {
	h.logger = logger
	return h
}

// Execute looks up the account and sends the reset token. Mail delivery
// runs off the request path; a delivery failure is logged and the request
// still succeeds.
func (h *InitiatePasswordReset) Execute(ctx context.Context, email string) error {
	user, err := h.store.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return ErrUserNotFound
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := h.tokens.MintResetToken(user.Email)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to mint reset token")
	}

	go func(email, token string) {
		if err := h.mailer.SendResetEmail(email, token); err != nil {
			h.logger.Error("failed to send reset email", "email", email, "error", err)
		}
	}(user.Email, token)

	return nil
}

// FinalizePasswordReset exchanges a valid reset token and a new password
// for a credential update
type FinalizePasswordReset struct {
	store  UserStore
	tokens TokenService
	logger Logger
}

// NewFinalizePasswordReset returns the reset finalizer
func NewFinalizePasswordReset(store UserStore, tokens TokenService) *FinalizePasswordReset {
	return &FinalizePasswordReset{
		store:  store,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (h *FinalizePasswordReset) WithLogger(logger Logger) *FinalizePasswordReset {
	h.logger = logger
	return h
}

// Execute validates the reset token, requires the reset purpose claim, and
// stores the new credential hash. Access tokens are rejected here the same
// way reset tokens are rejected by the Guard.
func (h *FinalizePasswordReset) Execute(ctx context.Context, rawToken, newPassword string) error {
	claims, err := h.tokens.Validate(rawToken)
	if err != nil {
		return invalidCredentials(err)
	}

	if !claims.IsReset() {
		return ErrInvalidCredentials
	}

	user, err := h.store.GetByEmail(ctx, claims.Email())
	if err != nil {
		if IsNotFound(err) {
			return ErrInvalidCredentials
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user for password reset")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	if _, err := h.store.Update(ctx, user); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to update credential")
	}

	h.logger.Info("password reset finalized", "email", user.Email)
	return nil
}
