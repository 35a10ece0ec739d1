package likeservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sushihentaime/codestar/internal/common"
)

func newLikeModel(db common.DBTX) *LikeModel {
	return &LikeModel{db: db}
}

// lockPair serialises toggles of the same (post, user) pair until the surrounding transaction ends.
func (m *LikeModel) lockPair(ctx context.Context, postID, userID int) error {
	_, err := m.db.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1, $2)", postID, userID)
	return err
}

// remove reports whether a like existed and was deleted.
func (m *LikeModel) remove(ctx context.Context, postID, userID int) (bool, error) {
	query := `
		DELETE FROM post_likes
		WHERE post_id = $1 AND user_id = $2
		RETURNING post_id`

	var id int
	err := m.db.QueryRowContext(ctx, query, postID, userID).Scan(&id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return false, nil
		default:
			return false, err
		}
	}

	return true, nil
}

func (m *LikeModel) insert(ctx context.Context, postID, userID int) error {
	query := `
		INSERT INTO post_likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (post_id, user_id) DO NOTHING
		RETURNING post_id`

	var id int
	err := m.db.QueryRowContext(ctx, query, postID, userID).Scan(&id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// another writer got there without holding the pair lock
			return common.ErrConflict
		case common.ForeignKeyViolation(err, "post_likes_post_id_fkey"),
			common.ForeignKeyViolation(err, "post_likes_user_id_fkey"):
			return common.ErrRecordNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *LikeModel) exists(ctx context.Context, postID, userID int) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM post_likes WHERE post_id = $1 AND user_id = $2)`

	var ok bool
	err := m.db.QueryRowContext(ctx, query, postID, userID).Scan(&ok)
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (m *LikeModel) count(ctx context.Context, postID int) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM post_likes WHERE post_id = $1", postID).Scan(&n)
	if err != nil {
		return 0, err
	}

	return n, nil
}
