package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"agendaki/internal/domain"
	"agendaki/internal/store"
)

type UserRepo struct {
	db *bun.DB
}

func NewUserRepo(db *bun.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := r.db.NewSelect().
		Model(&user).
		Where("username = ?", username).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, store.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// CreateFirstAdmin holds an advisory lock while checking emptiness, so two
// concurrent setup calls cannot both create an admin.
func (r *UserRepo) CreateFirstAdmin(ctx context.Context, user domain.User) (domain.User, error) {
	var out domain.User
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", "usuarios:setup").Exec(ctx); err != nil {
			return err
		}

		exists, err := tx.NewSelect().Model((*domain.User)(nil)).Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return store.ErrAlreadyExists
		}

		m := user
		if _, err := tx.NewInsert().Model(&m).Exec(ctx); err != nil {
			return err
		}
		out = m
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}
