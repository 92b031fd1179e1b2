package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// UserPatch carries the optional fields a caller may change on an account.
// Nil fields are left untouched.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
}

// AdminPatch extends UserPatch with the fields only admins may set directly
type AdminPatch struct {
	UserPatch
	Status *UserStatus
	Role   *UserRole
}

// Accounts implements the account lifecycle: registration, login, updates,
// deletion, activation, and logout-everywhere. Authorization decisions are
// made here against an already-resolved actor; token resolution itself is
// the Guard's job.
type Accounts struct {
	store  UserStore
	tokens TokenService
	logger Logger
}

// NewAccounts returns a new lifecycle service
func NewAccounts(store UserStore, tokens TokenService) *Accounts {
	return &Accounts{
		store:  store,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (a *Accounts) WithLogger(logger Logger) *Accounts {
	a.logger = logger
	return a
}

// Register creates a pending account. The email must not be registered yet.
func (a *Accounts) Register(ctx context.Context, name, email, password string) (*User, error) {
	if _, err := a.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check email availability")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       UserStatusPending,
		Role:         RoleUser,
		TokenVersion: 0,
	}

	created, err := a.store.Insert(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryConflict, "could not create user")
	}

	a.logger.Info("registered user", "email", created.Email)
	return created, nil
}

// Login verifies credentials and mints an access token embedding the
// account's current token version. Status is checked after credential
// verification, so an unknown email and a bad password are
// indistinguishable to the caller.
func (a *Accounts) Login(ctx context.Context, email, password string) (string, error) {
	user, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return "", ErrInvalidCredentials
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return "", ErrInvalidCredentials
	}

	if !user.IsActive() {
		return "", ErrNotActivated
	}

	return a.tokens.Mint(user.Email, user.TokenVersion)
}

// Update applies a patch to the target account. Allowed when the actor is
// the target or an admin. An email change re-checks uniqueness excluding
// the target itself.
func (a *Accounts) Update(ctx context.Context, actor *User, targetID uuid.UUID, patch UserPatch) (*User, error) {
	if err := authorizeSelfOrAdmin(actor, targetID); err != nil {
		return nil, err
	}

	target, err := a.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := a.applyPatch(ctx, target, patch); err != nil {
		return nil, err
	}

	return a.store.Update(ctx, target)
}

// AdminUpdate applies a patch including direct status and role changes.
// Role gating happens at the Guard; this method trusts its caller.
func (a *Accounts) AdminUpdate(ctx context.Context, targetID uuid.UUID, patch AdminPatch) (*User, error) {
	target, err := a.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := a.applyPatch(ctx, target, patch.UserPatch); err != nil {
		return nil, err
	}

	if patch.Status != nil {
		target.Status = *patch.Status
	}
	if patch.Role != nil {
		target.Role = *patch.Role
	}

	return a.store.Update(ctx, target)
}

// Delete destroys the target account. Same authorization rule as Update.
// Tokens issued for the account fail resolution as soon as the record is
// gone.
func (a *Accounts) Delete(ctx context.Context, actor *User, targetID uuid.UUID) error {
	if err := authorizeSelfOrAdmin(actor, targetID); err != nil {
		return err
	}

	if _, err := a.getUser(ctx, targetID); err != nil {
		return err
	}

	return a.store.Delete(ctx, targetID)
}

// AdminDelete destroys the target account without the self-or-admin rule;
// the Guard has already established the caller is an admin
func (a *Accounts) AdminDelete(ctx context.Context, targetID uuid.UUID) error {
	if _, err := a.getUser(ctx, targetID); err != nil {
		return err
	}

	return a.store.Delete(ctx, targetID)
}

// Activate flips the target account to active
func (a *Accounts) Activate(ctx context.Context, targetID uuid.UUID) (*User, error) {
	target, err := a.getUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	target.Status = UserStatusActive

	return a.store.Update(ctx, target)
}

// LogoutEverywhere bumps the actor's token version by exactly one. Every
// previously minted token fails the Guard's version check on its next use.
func (a *Accounts) LogoutEverywhere(ctx context.Context, actor *User) (*User, error) {
	updated, err := a.store.IncrementTokenVersion(ctx, actor.ID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to invalidate sessions")
	}

	a.logger.Info("logged out everywhere", "email", updated.Email, "token_version", updated.TokenVersion)
	return updated, nil
}

// AdminCreate creates an account that is active immediately, bypassing the
// pending workflow. Role defaults to user when empty.
func (a *Accounts) AdminCreate(ctx context.Context, name, email, password string, role UserRole) (*User, error) {
	if _, err := a.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check email availability")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = RoleUser
	}

	user := &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Status:       UserStatusActive,
		Role:         role,
		TokenVersion: 0,
	}

	return a.store.Insert(ctx, user)
}

// PendingUsers lists accounts that have not been activated yet
func (a *Accounts) PendingUsers(ctx context.Context) ([]*User, error) {
	return a.store.ListPending(ctx)
}

// UserIDs lists the ids of every account
func (a *Accounts) UserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return a.store.ListIDs(ctx)
}

// GetUser fetches one account by id
func (a *Accounts) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.getUser(ctx, id)
}

func (a *Accounts) getUser(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := a.store.GetByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user")
	}
	return user, nil
}

// applyPatch mutates the record in place, re-checking email uniqueness when
// the email changes
func (a *Accounts) applyPatch(ctx context.Context, target *User, patch UserPatch) error {
	if patch.Name != nil {
		target.Name = *patch.Name
	}

	if patch.Email != nil && *patch.Email != target.Email {
		existing, err := a.store.GetByEmail(ctx, *patch.Email)
		if err == nil && existing.ID != target.ID {
			return ErrEmailTaken
		}
		if err != nil && !IsNotFound(err) {
			return errors.Wrap(err, errors.CategoryInternal, "failed to check email availability")
		}
		target.Email = *patch.Email
	}

	if patch.Password != nil {
		hash, err := HashPassword(*patch.Password)
		if err != nil {
			return err
		}
		target.PasswordHash = hash
	}

	return nil
}

func authorizeSelfOrAdmin(actor *User, targetID uuid.UUID) error {
	if actor == nil {
		return ErrForbidden
	}
	if actor.ID == targetID || actor.IsAdmin() {
		return nil
	}
	return ErrForbidden
}
