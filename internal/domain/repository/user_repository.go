package repository

import (
	"context"
	"errors"

	"github.com/saedev/sae-portal/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail and ErrDuplicateUsername surface the store's own
	// unique-constraint rejection; they are the authoritative conflict
	// signal for racing writes, the service-level pre-checks only narrow
	// the window.
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

// UserRepository defines the persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// EmailInUse and UsernameInUse report whether the value is owned by a
	// user other than excludeID; pass "" to check against all users.
	EmailInUse(ctx context.Context, email, excludeID string) (bool, error)
	UsernameInUse(ctx context.Context, username, excludeID string) (bool, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateAvatar(ctx context.Context, id, avatar string) error
}
