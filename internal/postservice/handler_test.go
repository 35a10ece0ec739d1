package postservice

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/codestar/internal/common"
)

func setupTestEnvironment(t *testing.T) (*PostService, *sql.DB, int) {
	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	userID := common.TestUser(t, db, "author")

	t.Cleanup(cache.Flush)

	return NewPostService(db, cache), db, userID
}

func createTestPost(t *testing.T, s *PostService, authorID int, title string) *Post {
	t.Helper()

	post, err := s.CreatePost(context.Background(), &CreatePostRequest{
		Title:    title,
		AuthorID: authorID,
		Content:  "This is a test post.",
	})
	require.NoError(t, err)

	return post
}

func TestCreatePost(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)

	testCases := []struct {
		name        string
		req         *CreatePostRequest
		wantSlug    string
		expectedErr error
	}{
		{
			name:     "valid post",
			req:      &CreatePostRequest{Title: "Hello World", Slug: "hello-world", AuthorID: userID, Content: "content"},
			wantSlug: "hello-world",
		},
		{
			name:     "slug derived from title",
			req:      &CreatePostRequest{Title: "Second Post!", AuthorID: userID, Content: "content"},
			wantSlug: "second-post",
		},
		{
			name:        "duplicate slug",
			req:         &CreatePostRequest{Title: "Another Title", Slug: "hello-world", AuthorID: userID, Content: "content"},
			expectedErr: ErrDuplicateSlug,
		},
		{
			name:        "duplicate title",
			req:         &CreatePostRequest{Title: "Hello World", Slug: "hello-world-2", AuthorID: userID, Content: "content"},
			expectedErr: ErrDuplicateTitle,
		},
		{
			name:        "unknown author",
			req:         &CreatePostRequest{Title: "Orphan", AuthorID: 999, Content: "content"},
			expectedErr: ErrAuthorForeignKey,
		},
		{
			name:        "empty payload",
			req:         &CreatePostRequest{},
			expectedErr: common.ValidationError{Errors: map[string]string{"title": "must be provided", "slug": "must be provided", "content": "must be provided", "author_id": "must be greater than zero"}},
		},
		{
			name:        "invalid slug",
			req:         &CreatePostRequest{Title: "Bad Slug", Slug: "bad slug/", AuthorID: userID, Content: "content"},
			expectedErr: common.ValidationError{Errors: map[string]string{"slug": "must only contain letters, numbers, underscores, and hyphens"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			post, err := s.CreatePost(context.Background(), tc.req)
			if tc.expectedErr != nil {
				assert.Nil(t, post)
				assert.Equal(t, tc.expectedErr, err)
				return
			}

			require.NoError(t, err)
			assert.NotZero(t, post.ID)
			assert.Equal(t, tc.wantSlug, post.Slug)
			assert.Equal(t, StatusDraft, post.Status)
			assert.Equal(t, "placeholder", post.FeaturedImage)
			assert.False(t, post.CreatedAt.IsZero())
		})
	}

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestGetPublishedBySlug(t *testing.T) {
	s, _, userID := setupTestEnvironment(t)
	ctx := context.Background()

	post := createTestPost(t, s, userID, "Hello World")

	_, err := s.GetPublishedBySlug(ctx, "hello-world")
	assert.Equal(t, common.ErrRecordNotFound, err, "drafts are not visible")

	require.NoError(t, s.PublishPost(ctx, post.ID))

	got, err := s.GetPublishedBySlug(ctx, "hello-world")
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	assert.Equal(t, "author", got.Author)
	assert.Equal(t, StatusPublished, got.Status)
	assert.Contains(t, got.ContentHTML, "<p>This is a test post.</p>")

	require.NoError(t, s.UnpublishPost(ctx, post.ID))

	_, err = s.GetPublishedBySlug(ctx, "hello-world")
	assert.Equal(t, common.ErrRecordNotFound, err)

	_, err = s.GetPublishedBySlug(ctx, "missing")
	assert.Equal(t, common.ErrRecordNotFound, err)
}

func TestPublishPost(t *testing.T) {
	s, _, userID := setupTestEnvironment(t)
	ctx := context.Background()

	post := createTestPost(t, s, userID, "Publish Me")

	require.NoError(t, s.PublishPost(ctx, post.ID))
	first, err := s.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, first.Status)
	assert.True(t, first.UpdatedAt.After(post.UpdatedAt))

	require.NoError(t, s.PublishPost(ctx, post.ID), "publishing twice is not an error")
	second, err := s.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "a repeated transition changes nothing")

	assert.Equal(t, common.ErrRecordNotFound, s.PublishPost(ctx, 999))
	assert.Equal(t, common.ErrRecordNotFound, s.UnpublishPost(ctx, 999))
}

func TestListPublished(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)
	ctx := context.Background()

	var published []int
	for _, title := range []string{"One", "Two", "Three", "Four"} {
		post := createTestPost(t, s, userID, title)
		require.NoError(t, s.PublishPost(ctx, post.ID))
		published = append(published, post.ID)
	}
	createTestPost(t, s, userID, "Draft")

	// identical timestamps fall back to id ordering
	_, err := db.Exec("UPDATE posts SET created_at = '2024-01-01T00:00:00Z' WHERE id = ANY($1)", pq.Array([]int{published[2], published[3]}))
	require.NoError(t, err)

	posts, err := s.ListPublished(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []int{published[1], published[0], published[3], published[2]}, ids(posts))

	page, err := s.ListPublished(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{published[0], published[3]}, ids(page))

	defaults, err := s.ListPublished(ctx, -1, 0)
	require.NoError(t, err)
	assert.Len(t, defaults, 4)

	for _, p := range posts {
		assert.Equal(t, StatusPublished, p.Status)
	}
}

func TestListPublished_CacheInvalidation(t *testing.T) {
	s, _, userID := setupTestEnvironment(t)
	ctx := context.Background()

	post := createTestPost(t, s, userID, "Cached")

	posts, err := s.ListPublished(ctx, 0, 6)
	require.NoError(t, err)
	assert.Empty(t, posts)

	require.NoError(t, s.PublishPost(ctx, post.ID))

	posts, err = s.ListPublished(ctx, 0, 6)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	require.NoError(t, s.UnpublishPost(ctx, post.ID))

	posts, err = s.ListPublished(ctx, 0, 6)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestListPosts(t *testing.T) {
	s, _, userID := setupTestEnvironment(t)
	ctx := context.Background()

	draft := createTestPost(t, s, userID, "Draft about Go")
	live := createTestPost(t, s, userID, "Live about Rust")
	require.NoError(t, s.PublishPost(ctx, live.ID))

	published := StatusPublished
	drafts := StatusDraft

	testCases := []struct {
		name   string
		filter PostFilter
		want   []int
	}{
		{name: "all", filter: PostFilter{}, want: []int{live.ID, draft.ID}},
		{name: "published", filter: PostFilter{Status: &published}, want: []int{live.ID}},
		{name: "drafts", filter: PostFilter{Status: &drafts}, want: []int{draft.ID}},
		{name: "search title", filter: PostFilter{Search: "go"}, want: []int{draft.ID}},
		{name: "search content", filter: PostFilter{Search: "TEST POST"}, want: []int{live.ID, draft.ID}},
		{name: "wildcards are literal", filter: PostFilter{Search: "%"}, want: []int{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			posts, err := s.ListPosts(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(posts))
		})
	}
}

func TestUpdatePost(t *testing.T) {
	s, _, userID := setupTestEnvironment(t)
	ctx := context.Background()

	post := createTestPost(t, s, userID, "Original")
	createTestPost(t, s, userID, "Taken")

	updated, err := s.UpdatePost(ctx, post.ID, &UpdatePostRequest{Title: "Renamed", Content: "new *content*", Excerpt: "short"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "original", updated.Slug, "slug is immutable")
	assert.Equal(t, "short", updated.Excerpt)
	assert.Contains(t, updated.ContentHTML, "<em>content</em>")
	assert.True(t, updated.UpdatedAt.After(post.UpdatedAt))

	_, err = s.UpdatePost(ctx, post.ID, &UpdatePostRequest{Title: "Taken", Content: "x"})
	assert.Equal(t, ErrDuplicateTitle, err)

	_, err = s.UpdatePost(ctx, 999, &UpdatePostRequest{Title: "Nope", Content: "x"})
	assert.Equal(t, common.ErrRecordNotFound, err)
}

func TestDeletePost_Cascade(t *testing.T) {
	s, db, userID := setupTestEnvironment(t)
	ctx := context.Background()

	post := createTestPost(t, s, userID, "Doomed")
	other := createTestPost(t, s, userID, "Survivor")

	for _, id := range []int{post.ID, other.ID} {
		_, err := db.Exec("INSERT INTO comments (post_id, name, email, body) VALUES ($1, 'a', 'a@example.com', 'hi')", id)
		require.NoError(t, err)
		_, err = db.Exec("INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)", id, userID)
		require.NoError(t, err)
	}

	require.NoError(t, s.DeletePost(ctx, post.ID))
	assert.Equal(t, common.ErrRecordNotFound, s.DeletePost(ctx, post.ID))

	var comments, likes int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM comments WHERE post_id = $1", post.ID).Scan(&comments))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM post_likes WHERE post_id = $1", post.ID).Scan(&likes))
	assert.Zero(t, comments)
	assert.Zero(t, likes)

	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM comments WHERE post_id = $1", other.ID).Scan(&comments))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM post_likes WHERE post_id = $1", other.ID).Scan(&likes))
	assert.Equal(t, 1, comments)
	assert.Equal(t, 1, likes)
}

func ids(posts []Post) []int {
	out := []int{}
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}
