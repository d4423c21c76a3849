package store

import (
	"context"

	"agendaki/internal/domain"
)

type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateFirstAdmin inserts the user only when the usuarios table is
	// empty, atomically. Returns ErrAlreadyExists once any user exists.
	CreateFirstAdmin(ctx context.Context, user domain.User) (domain.User, error)
}
