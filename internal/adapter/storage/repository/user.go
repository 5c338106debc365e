package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/MikeRez0/novacart/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

var userColumns = []string{"id", "name", "email", "password", "role", "created_at"}

func (r *Repository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	statement := r.db.QueryBuilder.
		Insert("users").
		Columns("name", "email", "password", "role").
		Values(user.Name, user.Email, user.Password, user.Role).
		Suffix("RETURNING id, created_at")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.readUser(ctx, sq.Eq{"email": email})
}

func (r *Repository) GetUserByID(ctx context.Context, userID uint64) (*domain.User, error) {
	return r.readUser(ctx, sq.Eq{"id": userID})
}

func (r *Repository) readUser(ctx context.Context, where sq.Eq) (*domain.User, error) {
	statement := r.db.QueryBuilder.
		Select(userColumns...).
		From("users").
		Where(where)

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	user := domain.User{}
	err = r.db.Querier(ctx).QueryRow(ctx, sql, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &user, nil
}
