package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cidrfence/cidrfence/internal/model"
)

type users struct{ db *sql.DB }

func (u *users) Create(ctx context.Context, m *model.User) (*model.User, error) {
	role := m.Role
	if role == "" {
		role = model.UserRoleUser
	}
	var id string
	var created, updated time.Time
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (login, password_hash, role)
        VALUES ($1,$2,$3)
        ON CONFLICT (login) DO NOTHING
        RETURNING id, created_at, updated_at
    `, m.Login, m.PasswordHash, role)
	if err := row.Scan(&id, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrConflict
		}
		return nil, err
	}
	out := *m
	out.ID = id
	out.Role = role
	out.CreatedAt = created
	out.UpdatedAt = updated
	return &out, nil
}

func (u *users) GetByLogin(ctx context.Context, login string) (*model.User, error) {
	var out model.User
	row := u.db.QueryRowContext(ctx, `
        SELECT id, login, password_hash, role, created_at, updated_at
        FROM users WHERE login=$1
    `, login)
	if err := row.Scan(&out.ID, &out.Login, &out.PasswordHash, &out.Role, &out.CreatedAt, &out.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (u *users) UpdatePassword(ctx context.Context, login, passwordHash string) error {
	res, err := u.db.ExecContext(ctx, `
        UPDATE users SET password_hash=$1, updated_at=now() WHERE login=$2
    `, passwordHash, login)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (u *users) Delete(ctx context.Context, userID string) error {
	res, err := u.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
