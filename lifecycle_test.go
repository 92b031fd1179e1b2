package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/calder-io/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newLifecycle(store accounts.UserStore) *accounts.Accounts {
	return accounts.NewAccounts(store, newTestTokenService()).WithLogger(quietLogger{})
}

func TestAccounts_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending user", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, "new@example.com").
			Return(nil, accounts.ErrUserNotFound)
		store.On("Insert", mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
			return u.Email == "new@example.com" &&
				u.Status == accounts.UserStatusPending &&
				u.Role == accounts.RoleUser &&
				u.TokenVersion == 0 &&
				u.PasswordHash != "" &&
				u.PasswordHash != "s3cret-password"
		})).Return(func(u *accounts.User) *accounts.User { return u }, nil)

		user, err := newLifecycle(store).Register(ctx, "New User", "new@example.com", "s3cret-password")
		require.NoError(t, err)
		assert.Equal(t, accounts.UserStatusPending, user.Status)
		store.AssertExpectations(t)
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, "taken@example.com").
			Return(activeUser("taken@example.com", 0), nil)

		_, err := newLifecycle(store).Register(ctx, "Other", "taken@example.com", "s3cret-password")
		assert.ErrorIs(t, err, accounts.ErrEmailTaken)
		store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("rejects an empty password", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, "new@example.com").
			Return(nil, accounts.ErrUserNotFound)

		_, err := newLifecycle(store).Register(ctx, "New User", "new@example.com", "")
		assert.ErrorIs(t, err, accounts.ErrNoEmptyString)
	})
}

func TestAccounts_Login(t *testing.T) {
	ctx := context.Background()

	hash, err := accounts.HashPassword("s3cret-password")
	require.NoError(t, err)

	t.Run("mints a token for valid credentials", func(t *testing.T) {
		user := activeUser("user@example.com", 4)
		user.PasswordHash = hash

		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

		service := newTestTokenService()
		lifecycle := accounts.NewAccounts(store, service).WithLogger(quietLogger{})

		raw, err := lifecycle.Login(ctx, user.Email, "s3cret-password")
		require.NoError(t, err)

		claims, err := service.Validate(raw)
		require.NoError(t, err)
		assert.Equal(t, user.Email, claims.Email())
		assert.Equal(t, 4, claims.Version())
	})

	t.Run("unknown email and bad password are indistinguishable", func(t *testing.T) {
		user := activeUser("user@example.com", 0)
		user.PasswordHash = hash

		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, "nobody@example.com").
			Return(nil, accounts.ErrUserNotFound)
		store.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

		lifecycle := newLifecycle(store)

		_, unknownErr := lifecycle.Login(ctx, "nobody@example.com", "whatever")
		_, badPassErr := lifecycle.Login(ctx, user.Email, "wrong-password")

		assert.ErrorIs(t, unknownErr, accounts.ErrInvalidCredentials)
		assert.ErrorIs(t, badPassErr, accounts.ErrInvalidCredentials)
		assert.Equal(t, unknownErr.Error(), badPassErr.Error())
	})

	t.Run("pending user cannot log in", func(t *testing.T) {
		user := activeUser("pending@example.com", 0)
		user.Status = accounts.UserStatusPending
		user.PasswordHash = hash

		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

		_, err := newLifecycle(store).Login(ctx, user.Email, "s3cret-password")
		assert.ErrorIs(t, err, accounts.ErrNotActivated)
	})

	t.Run("credentials are checked before status", func(t *testing.T) {
		user := activeUser("pending@example.com", 0)
		user.Status = accounts.UserStatusPending
		user.PasswordHash = hash

		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

		_, err := newLifecycle(store).Login(ctx, user.Email, "wrong-password")
		assert.ErrorIs(t, err, accounts.ErrInvalidCredentials)
	})
}

func TestAccounts_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("user updates their own record", func(t *testing.T) {
		user := activeUser("user@example.com", 0)

		store := &MockUserStore{}
		store.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		store.On("Update", mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
			return u.Name == "Renamed"
		})).Return(func(u *accounts.User) *accounts.User { return u }, nil)

		name := "Renamed"
		updated, err := newLifecycle(store).Update(ctx, user, user.ID, accounts.UserPatch{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Name)
	})

	t.Run("user cannot update another account", func(t *testing.T) {
		actor := activeUser("user@example.com", 0)
		other := activeUser("other@example.com", 0)

		store := &MockUserStore{}
		name := "Hijacked"
		_, err := newLifecycle(store).Update(ctx, actor, other.ID, accounts.UserPatch{Name: &name})
		assert.ErrorIs(t, err, accounts.ErrForbidden)
		store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("admin updates any account", func(t *testing.T) {
		admin := activeUser("admin@example.com", 0)
		admin.Role = accounts.RoleAdmin
		target := activeUser("user@example.com", 0)

		store := &MockUserStore{}
		store.On("GetByID", mock.Anything, target.ID).Return(target, nil)
		store.On("Update", mock.Anything, mock.Anything).
			Return(func(u *accounts.User) *accounts.User { return u }, nil)

		name := "Managed"
		_, err := newLifecycle(store).Update(ctx, admin, target.ID, accounts.UserPatch{Name: &name})
		assert.NoError(t, err)
	})

	t.Run("email change rechecks uniqueness", func(t *testing.T) {
		user := activeUser("user@example.com", 0)
		holder := activeUser("held@example.com", 0)

		store := &MockUserStore{}
		store.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		store.On("GetByEmail", mock.Anything, "held@example.com").Return(holder, nil)

		email := "held@example.com"
		_, err := newLifecycle(store).Update(ctx, user, user.ID, accounts.UserPatch{Email: &email})
		assert.ErrorIs(t, err, accounts.ErrEmailTaken)
	})

	t.Run("user deletes their own account", func(t *testing.T) {
		user := activeUser("user@example.com", 0)

		store := &MockUserStore{}
		store.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		store.On("Delete", mock.Anything, user.ID).Return(nil)

		assert.NoError(t, newLifecycle(store).Delete(ctx, user, user.ID))
	})

	t.Run("user cannot delete another account", func(t *testing.T) {
		actor := activeUser("user@example.com", 0)

		store := &MockUserStore{}
		err := newLifecycle(store).Delete(ctx, actor, uuid.New())
		assert.ErrorIs(t, err, accounts.ErrForbidden)
	})

	t.Run("missing target reports not found", func(t *testing.T) {
		admin := activeUser("admin@example.com", 0)
		admin.Role = accounts.RoleAdmin
		missing := uuid.New()

		store := &MockUserStore{}
		store.On("GetByID", mock.Anything, missing).Return(nil, accounts.ErrUserNotFound)

		err := newLifecycle(store).Delete(ctx, admin, missing)
		assert.ErrorIs(t, err, accounts.ErrUserNotFound)
	})
}

func TestAccounts_AdminUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("sets status and role directly", func(t *testing.T) {
		target := activeUser("user@example.com", 0)

		store := &MockUserStore{}
		store.On("GetByID", mock.Anything, target.ID).Return(target, nil)
		store.On("Update", mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
			return u.Status == accounts.UserStatusPending && u.Role == accounts.RoleAdmin
		})).Return(func(u *accounts.User) *accounts.User { return u }, nil)

		status := accounts.UserStatusPending
		role := accounts.RoleAdmin
		updated, err := newLifecycle(store).AdminUpdate(ctx, target.ID, accounts.AdminPatch{
			Status: &status,
			Role:   &role,
		})
		require.NoError(t, err)
		assert.Equal(t, accounts.RoleAdmin, updated.Role)
	})
}

func TestAccounts_Activate(t *testing.T) {
	ctx := context.Background()

	user := activeUser("pending@example.com", 0)
	user.Status = accounts.UserStatusPending

	store := &MockUserStore{}
	store.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	store.On("Update", mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
		return u.Status == accounts.UserStatusActive
	})).Return(func(u *accounts.User) *accounts.User { return u }, nil)

	updated, err := newLifecycle(store).Activate(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, accounts.UserStatusActive, updated.Status)
}

func TestAccounts_LogoutEverywhere(t *testing.T) {
	ctx := context.Background()

	t.Run("bumps the token version", func(t *testing.T) {
		user := activeUser("user@example.com", 1)
		bumped := *user
		bumped.TokenVersion = 2

		store := &MockUserStore{}
		store.On("IncrementTokenVersion", mock.Anything, user.ID).Return(&bumped, nil)

		updated, err := newLifecycle(store).LogoutEverywhere(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 2, updated.TokenVersion)
	})

	t.Run("missing account reports not found", func(t *testing.T) {
		user := activeUser("gone@example.com", 0)

		store := &MockUserStore{}
		store.On("IncrementTokenVersion", mock.Anything, user.ID).
			Return(nil, accounts.ErrUserNotFound)

		_, err := newLifecycle(store).LogoutEverywhere(ctx, user)
		assert.ErrorIs(t, err, accounts.ErrUserNotFound)
	})
}

func TestAccounts_AdminCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("account is active immediately", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, "staff@example.com").
			Return(nil, accounts.ErrUserNotFound)
		store.On("Insert", mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
			return u.Status == accounts.UserStatusActive && u.Role == accounts.RoleUser
		})).Return(func(u *accounts.User) *accounts.User { return u }, nil)

		user, err := newLifecycle(store).AdminCreate(ctx, "Staff", "staff@example.com", "s3cret-password", "")
		require.NoError(t, err)
		assert.Equal(t, accounts.UserStatusActive, user.Status)
	})

	t.Run("can create another admin", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, "boss@example.com").
			Return(nil, accounts.ErrUserNotFound)
		store.On("Insert", mock.Anything, mock.MatchedBy(func(u *accounts.User) bool {
			return u.Role == accounts.RoleAdmin
		})).Return(func(u *accounts.User) *accounts.User { return u }, nil)

		user, err := newLifecycle(store).AdminCreate(ctx, "Boss", "boss@example.com", "s3cret-password", accounts.RoleAdmin)
		require.NoError(t, err)
		assert.True(t, user.IsAdmin())
	})
}

func TestAccounts_Listings(t *testing.T) {
	ctx := context.Background()

	t.Run("pending users", func(t *testing.T) {
		pending := activeUser("pending@example.com", 0)
		pending.Status = accounts.UserStatusPending

		store := &MockUserStore{}
		store.On("ListPending", mock.Anything).Return([]*accounts.User{pending}, nil)

		out, err := newLifecycle(store).PendingUsers(ctx)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, pending.Email, out[0].Email)
	})

	t.Run("user ids", func(t *testing.T) {
		ids := []uuid.UUID{uuid.New(), uuid.New()}

		store := &MockUserStore{}
		store.On("ListIDs", mock.Anything).Return(ids, nil)

		out, err := newLifecycle(store).UserIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, ids, out)
	})
}

func TestAccounts_ErrorCodes(t *testing.T) {
	t.Run("taxonomy maps to the right status codes", func(t *testing.T) {
		assert.Equal(t, errors.CodeUnauthorized, accounts.ErrInvalidCredentials.Code)
		assert.Equal(t, errors.CodeForbidden, accounts.ErrNotActivated.Code)
		assert.Equal(t, errors.CodeUnauthorized, accounts.ErrTokenRevoked.Code)
		assert.Equal(t, errors.CodeForbidden, accounts.ErrForbidden.Code)
		assert.Equal(t, errors.CodeNotFound, accounts.ErrUserNotFound.Code)
		assert.Equal(t, errors.CodeBadRequest, accounts.ErrEmailTaken.Code)
	})
}
