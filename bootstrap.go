package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// EnsureAdminUser seeds the configured admin account at startup. The id is
// derived from the email so repeated boots against a fresh store converge
// on the same record. Idempotent: an existing account is left untouched.
func EnsureAdminUser(ctx context.Context, store UserStore, cfg Config, logger Logger) (*User, error) {
	if logger == nil {
		logger = defLogger{}
	}

	if existing, err := store.GetByEmail(ctx, cfg.GetAdminEmail()); err == nil {
		logger.Debug("admin user already exists", "email", existing.Email)
		return existing, nil
	} else if !IsNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up admin user")
	}

	hash, err := HashPassword(cfg.GetAdminPassword())
	if err != nil {
		return nil, err
	}

	user := &User{
		Name:         "Admin",
		Email:        cfg.GetAdminEmail(),
		PasswordHash: hash,
		Status:       UserStatusActive,
		Role:         RoleAdmin,
		TokenVersion: 0,
	}

	if id, err := hashid.NewUUID(cfg.GetAdminEmail()); err == nil {
		user.ID = id
	} else {
		user.ID = uuid.New()
	}

	created, err := store.Insert(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to seed admin user")
	}

	logger.Info("created admin user", "email", created.Email)
	return created, nil
}
