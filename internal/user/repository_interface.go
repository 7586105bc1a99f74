package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	// UpsertAdmin creates the account or promotes an existing one. The
	// password of an existing account is left untouched.
	UpsertAdmin(ctx context.Context, name, email, passwordHash string) (*User, error)
}
