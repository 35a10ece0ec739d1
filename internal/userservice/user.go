package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

var (
	ErrNotFound = errors.New("user not found")
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

// getUserByToken resolves an unexpired access token hash to its user, the user's permissions and the
// token's expiry.
func (m *DBModel) getUserByToken(ctx context.Context, token []byte) (*User, time.Time, error) {
	var u User
	var expiry time.Time

	query := `
		SELECT u.id, u.username, u.email, u.created_at, t.access_token_expiry,
			COALESCE(array_agg(p.permission) FILTER (WHERE p.permission IS NOT NULL), '{}')
		FROM users u
		INNER JOIN auth_tokens t ON u.id = t.user_id
		LEFT JOIN user_permissions p ON u.id = p.user_id
		WHERE t.access_token = $1 AND t.access_token_expiry > $2
		GROUP BY u.id, t.access_token_expiry`

	var permissions []string
	err := m.db.QueryRowContext(ctx, query, token, time.Now()).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &expiry, pq.Array(&permissions))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, time.Time{}, ErrNotFound
		default:
			return nil, time.Time{}, err
		}
	}

	for _, p := range permissions {
		u.Permissions = append(u.Permissions, Permission(p))
	}

	return &u, expiry, nil
}

func (m *DBModel) getUserByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, username, email, created_at
		FROM users
		WHERE id = $1`

	var u User
	err := m.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}
