package database

import (
	"context"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"

	"github.com/Renal37/bankaccount/internal/models"
)

const (
	InsertUserQuery = `
        INSERT INTO
            users (login, hash)
        VALUES ($1, $2)
    `
	SelectUserQuery = `
        SELECT
            id::text,
            login,
            hash
        FROM
            users
        WHERE
            login = $1
    `
)

func (d *Database) CreateUser(ctx context.Context, user models.User) error {
	if _, err := d.db.Exec(ctx, InsertUserQuery, user.Login, user.Hash); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return models.ErrDuplicateUser
		}
		return errors.Wrap(err, "failed to create user")
	}
	return nil
}

// FindUser returns nil without an error when there is no such login.
func (d *Database) FindUser(ctx context.Context, login string) (*models.User, error) {
	user := &models.User{}

	if err := d.db.QueryRow(ctx, SelectUserQuery, login).Scan(&user.ID, &user.Login, &user.Hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find user")
	}
	return user, nil
}
