package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qrsp/sticker-alias/internal/models"
)

// ---------- users -----------------------------------------------------------

func (q Queries) UpsertUser(ctx context.Context, u models.User) error {
	var name sql.NullString
	if u.Name != "" {
		name = sql.NullString{String: u.Name, Valid: true}
	}
	_, err := q.q.ExecContext(ctx, `
        INSERT INTO users (user_id, nickname, admin) VALUES (?,?,?)
        ON CONFLICT(user_id) DO UPDATE SET nickname=excluded.nickname,
            admin=excluded.admin
    `, u.ID, name, u.Admin)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

func (q Queries) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var (
		u    models.User
		name sql.NullString
	)
	err := q.q.QueryRowContext(ctx,
		`SELECT user_id, nickname, admin FROM users WHERE user_id=?`, id,
	).Scan(&u.ID, &name, &u.Admin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.Name = name.String
	return &u, nil
}

func (q Queries) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT user_id, nickname, admin FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var res []models.User
	for rows.Next() {
		var (
			u    models.User
			name sql.NullString
		)
		if err := rows.Scan(&u.ID, &name, &u.Admin); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Name = name.String
		res = append(res, u)
	}
	return res, rows.Err()
}

// AdminID returns the user that receives system notifications.
// ok is false when no admin is configured.
func (q Queries) AdminID(ctx context.Context) (id int64, ok bool, err error) {
	err = q.q.QueryRowContext(ctx,
		`SELECT user_id FROM users WHERE admin=1 ORDER BY user_id LIMIT 1`,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select admin: %w", err)
	}
	return id, true, nil
}

// IsAuthorized reports whether the user is known to the bot.
func (q Queries) IsAuthorized(ctx context.Context, id int64) (bool, error) {
	u, err := q.GetUser(ctx, id)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}
