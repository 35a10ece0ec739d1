package userservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/codestar/internal/common"
)

func (m *DBModel) addUserPermission(tx *sql.Tx, ctx context.Context, id int, permissions ...Permission) error {
	for _, p := range permissions {
		_, err := tx.ExecContext(ctx, "INSERT INTO user_permissions (user_id, permission) VALUES ($1, $2) ON CONFLICT DO NOTHING", id, p)
		if err != nil {
			switch {
			case common.ForeignKeyViolation(err, "user_permissions_user_id_fkey"):
				return ErrNotFound
			default:
				return err
			}
		}
	}

	return nil
}
