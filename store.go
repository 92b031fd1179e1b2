package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// UserStore is the persistence contract the core needs from the account
// store. Store failures propagate to the caller unchanged; the core never
// retries.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListPending(ctx context.Context) ([]*User, error)
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
	Insert(ctx context.Context, user *User) (*User, error)
	Update(ctx context.Context, user *User) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementTokenVersion bumps the account's counter by exactly one as a
	// single atomic read-modify-write and returns the updated record.
	IncrementTokenVersion(ctx context.Context, id uuid.UUID) (*User, error)
}

// IsNotFound reports whether err signals a missing record, from either the
// repository layer or the structured error taxonomy
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.IsNotFound(err) || repository.IsRecordNotFound(err)
}
