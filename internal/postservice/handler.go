package postservice

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sushihentaime/codestar/internal/common"
)

const (
	DefaultPageSize = 6
	MaxPageSize     = 100
)

func NewPostService(db *sql.DB, c *common.Cache) *PostService {
	return &PostService{m: newPostModel(db), c: c}
}

// WithTx returns a service whose reads and writes run inside tx. It bypasses the cache.
func (s *PostService) WithTx(tx *sql.Tx) *PostService {
	return &PostService{m: newPostModel(tx)}
}

type CreatePostRequest struct {
	Title         string `json:"title"`
	Slug          string `json:"slug"`
	AuthorID      int    `json:"author_id"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	FeaturedImage string `json:"featured_image"`
}

// CreatePost creates a draft. When no slug is given it is derived from the title.
func (s *PostService) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	post := &Post{
		Title:         strings.TrimSpace(req.Title),
		Slug:          strings.TrimSpace(req.Slug),
		AuthorID:      req.AuthorID,
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		FeaturedImage: req.FeaturedImage,
		Status:        StatusDraft,
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}
	if post.FeaturedImage == "" {
		post.FeaturedImage = "placeholder"
	}

	v := common.NewValidator()
	validateTitle(v, post.Title)
	validateSlug(v, post.Slug)
	validateContent(v, post.Content)
	validateInt(v, post.AuthorID, "author_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	err := s.m.insert(ctx, post)
	if err != nil {
		return nil, err
	}

	return post, nil
}

// GetPostByID returns a post in any status. Used by the moderation console.
func (s *PostService) GetPostByID(ctx context.Context, id int) (*Post, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.m.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	post.ContentHTML = renderMarkdown(post.Content)

	return post, nil
}

// GetPublishedBySlug returns common.ErrRecordNotFound for drafts as well as for unknown slugs.
func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (*Post, error) {
	if slug == "" {
		return nil, common.ErrRecordNotFound
	}

	post, err := s.m.getPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	post.ContentHTML = renderMarkdown(post.Content)

	return post, nil
}

// ListPublished returns a page of published posts, newest first. A limit below one selects DefaultPageSize.
func (s *PostService) ListPublished(ctx context.Context, offset, limit int) ([]Post, error) {
	limit, offset = normalizePage(limit, offset)

	key := common.CacheKeyPublishedPosts(limit, offset)
	if s.c != nil {
		if cached, ok := s.c.Get(key); ok {
			return append([]Post(nil), cached.([]Post)...), nil
		}
	}

	posts, err := s.m.listPublished(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(key, append([]Post(nil), posts...))
	}

	return posts, nil
}

// ListPosts is the moderation listing over every status.
func (s *PostService) ListPosts(ctx context.Context, f PostFilter) ([]Post, error) {
	f.Limit, f.Offset = normalizePage(f.Limit, f.Offset)
	f.Search = strings.TrimSpace(f.Search)

	return s.m.list(ctx, f)
}

// PublishPost makes a draft visible. Publishing a published post is a no-op.
func (s *PostService) PublishPost(ctx context.Context, id int) error {
	return s.setStatus(ctx, id, StatusPublished)
}

// UnpublishPost moves a post back to draft. Unpublishing a draft is a no-op.
func (s *PostService) UnpublishPost(ctx context.Context, id int) error {
	return s.setStatus(ctx, id, StatusDraft)
}

func (s *PostService) setStatus(ctx context.Context, id int, status Status) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	err := s.m.setStatus(ctx, id, status)
	if err != nil {
		return err
	}

	s.invalidate()

	return nil
}

type UpdatePostRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	FeaturedImage string `json:"featured_image"`
}

// UpdatePost rewrites the editable fields of a post. The slug never changes.
func (s *PostService) UpdatePost(ctx context.Context, id int, req *UpdatePostRequest) (*Post, error) {
	post := &Post{
		ID:            id,
		Title:         strings.TrimSpace(req.Title),
		Content:       req.Content,
		Excerpt:       req.Excerpt,
		FeaturedImage: req.FeaturedImage,
	}
	if post.FeaturedImage == "" {
		post.FeaturedImage = "placeholder"
	}

	v := common.NewValidator()
	validateInt(v, id, "id")
	validateTitle(v, post.Title)
	validateContent(v, post.Content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	err := s.m.update(ctx, post)
	if err != nil {
		return nil, err
	}

	s.invalidate()

	return s.GetPostByID(ctx, id)
}

// DeletePost removes a post together with its comments and likes.
func (s *PostService) DeletePost(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	err := s.m.delete(ctx, id)
	if err != nil {
		return err
	}

	s.invalidate()

	return nil
}

func (s *PostService) invalidate() {
	if s.c != nil {
		s.c.DeletePrefix(common.CacheKeyPublishedPostsPrefix)
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
