package repository

import (
	"context"
	"fmt"

	"yatra/internal/models"
)

type UserRepository struct {
	db Querier
}

const userColumns = `id, phone, name, role, created_at, last_login_at`

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Phone, &u.Name, &u.Role, &u.CreatedAt, &u.LastLoginAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
	if err != nil {
		return nil, notFound(err, "user", phone)
	}
	return user, nil
}

// UpsertOnLogin creates the user on first login and refreshes last_login_at
// afterwards. A non-empty name overwrites the stored one; the admin role is
// granted but never revoked here.
func (r *UserRepository) UpsertOnLogin(ctx context.Context, phone, name, role string) (*models.User, error) {
	query := `
		INSERT INTO users (phone, name, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (phone) DO UPDATE
		SET last_login_at = NOW(),
		    name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END,
		    role = CASE WHEN EXCLUDED.role = 'admin' THEN 'admin' ELSE users.role END
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, phone, name, role))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return user, nil
}
