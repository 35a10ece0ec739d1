package commentservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/sushihentaime/codestar/internal/common"
)

// statusPublished mirrors postservice.StatusPublished.
const statusPublished = 1

const commentColumns = `id, post_id, name, email, body, created_at, approved`

func newCommentModel(db common.DBTX) *CommentModel {
	return &CommentModel{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.Name, &c.Email, &c.Body, &c.CreatedAt, &c.Approved)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// insert only succeeds against a published post. Drafts and missing posts yield common.ErrRecordNotFound.
func (m *CommentModel) insert(ctx context.Context, postID int, name, email, body string) (*Comment, error) {
	query := `
		INSERT INTO comments (post_id, name, email, body)
		SELECT id, $2, $3, $4 FROM posts
		WHERE id = $1 AND status = $5
		RETURNING ` + commentColumns

	c, err := scanComment(m.db.QueryRowContext(ctx, query, postID, name, email, body, statusPublished))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows),
			common.ForeignKeyViolation(err, "comments_post_id_fkey"):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return c, nil
}

func (m *CommentModel) getByID(ctx context.Context, id int) (*Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	c, err := scanComment(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return c, nil
}

func (m *CommentModel) approve(ctx context.Context, id int) error {
	res, err := m.db.ExecContext(ctx, "UPDATE comments SET approved = true WHERE id = $1", id)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res)
}

// approveMany returns the number of comments matched by ids.
func (m *CommentModel) approveMany(ctx context.Context, ids []int) (int, error) {
	res, err := m.db.ExecContext(ctx, "UPDATE comments SET approved = true WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

func (m *CommentModel) delete(ctx context.Context, id int) error {
	res, err := m.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res)
}

// listApproved orders oldest first, ties broken by id.
func (m *CommentModel) listApproved(ctx context.Context, postID int) ([]Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE post_id = $1 AND approved = true
		ORDER BY created_at ASC, id ASC`

	return m.queryComments(ctx, query, postID)
}

func (m *CommentModel) list(ctx context.Context, f CommentFilter) ([]Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE ($1 = 0 OR post_id = $1)
		AND ($2::boolean IS NULL OR approved = $2)
		AND ($3 = '' OR name ILIKE $3 OR email ILIKE $3 OR body ILIKE $3)
		ORDER BY created_at ASC, id ASC
		LIMIT $4 OFFSET $5`

	var approved any
	if f.Approved != nil {
		approved = *f.Approved
	}

	var pattern string
	if f.Search != "" {
		pattern = "%" + common.EscapeLike(f.Search) + "%"
	}

	return m.queryComments(ctx, query, f.PostID, approved, pattern, f.Limit, f.Offset)
}

func (m *CommentModel) queryComments(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}
