package postservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sushihentaime/codestar/internal/common"
)

var (
	ErrDuplicateSlug    = errors.New("duplicate slug")
	ErrDuplicateTitle   = errors.New("duplicate title")
	ErrAuthorForeignKey = errors.New("author_id does not exist")
)

func newPostModel(db common.DBTX) *PostModel {
	return &PostModel{db: db}
}

const postColumns = `p.id, p.title, p.slug, p.author_id, u.username, p.content, p.excerpt, p.featured_image, p.status, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*Post, error) {
	var post Post
	err := row.Scan(&post.ID, &post.Title, &post.Slug, &post.AuthorID, &post.Author, &post.Content, &post.Excerpt, &post.FeaturedImage, &post.Status, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &post, nil
}

// insertError maps constraint violations raised by writes to the posts table.
func insertError(err error) error {
	switch {
	case common.UniqueViolation(err, "posts_slug_key"):
		return ErrDuplicateSlug
	case common.UniqueViolation(err, "posts_title_key"):
		return ErrDuplicateTitle
	case common.ForeignKeyViolation(err, "posts_author_id_fkey"):
		return ErrAuthorForeignKey
	default:
		return err
	}
}

func (m *PostModel) insert(ctx context.Context, post *Post) error {
	query := `
		INSERT INTO posts (title, slug, author_id, content, excerpt, featured_image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	args := []any{post.Title, post.Slug, post.AuthorID, post.Content, post.Excerpt, post.FeaturedImage, post.Status}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return insertError(err)
	}

	return nil
}

// getByID returns a post regardless of its status.
func (m *PostModel) getByID(ctx context.Context, id int) (*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.id = $1`

	post, err := scanPost(m.db.QueryRowContext(ctx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return post, nil
}

// getPublishedBySlug treats drafts exactly like missing posts.
func (m *PostModel) getPublishedBySlug(ctx context.Context, slug string) (*Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.slug = $1 AND p.status = $2`

	post, err := scanPost(m.db.QueryRowContext(ctx, query, slug, StatusPublished))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return post, nil
}

// listPublished returns published posts newest first, ties broken by id so pages are stable.
func (m *PostModel) listPublished(ctx context.Context, limit, offset int) ([]Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.status = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3`

	return m.queryPosts(ctx, query, StatusPublished, limit, offset)
}

// list backs the admin listing: optional status filter and a case-insensitive search over title and content.
func (m *PostModel) list(ctx context.Context, f PostFilter) ([]Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE ($1::smallint IS NULL OR p.status = $1)
		AND ($2 = '' OR p.title ILIKE $2 OR p.content ILIKE $2)
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $3 OFFSET $4`

	var status any
	if f.Status != nil {
		status = int(*f.Status)
	}

	var pattern string
	if f.Search != "" {
		pattern = "%" + common.EscapeLike(f.Search) + "%"
	}

	return m.queryPosts(ctx, query, status, pattern, f.Limit, f.Offset)
}

func (m *PostModel) queryPosts(ctx context.Context, query string, args ...any) ([]Post, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *post)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return posts, nil
}

// setStatus only touches updated_at when the status actually changes, so repeating a transition is a no-op.
func (m *PostModel) setStatus(ctx context.Context, id int, status Status) error {
	query := `
		UPDATE posts
		SET status = $2,
			updated_at = CASE WHEN status <> $2 THEN clock_timestamp() ELSE updated_at END
		WHERE id = $1`

	res, err := m.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res)
}

func (m *PostModel) update(ctx context.Context, post *Post) error {
	query := `
		UPDATE posts
		SET title = $1, content = $2, excerpt = $3, featured_image = $4, updated_at = clock_timestamp()
		WHERE id = $5`

	args := []any{post.Title, post.Content, post.Excerpt, post.FeaturedImage, post.ID}

	res, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return insertError(err)
	}

	return common.ExpectOneRow(res)
}

// delete removes the post. Its comments and likes go with it through ON DELETE CASCADE.
func (m *PostModel) delete(ctx context.Context, id int) error {
	res, err := m.db.ExecContext(ctx, "DELETE FROM posts WHERE id = $1", id)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res)
}
