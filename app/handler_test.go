package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/codestar/internal/userservice"
)

type testActors struct {
	editor    *string
	moderator *string
	reader    *string
	other     *string
}

func setupTestServer(t *testing.T) (*testServer, testActors) {
	app, db := newTestApplication(t)

	_, editor := createTestUser(t, app, db, "editor", userservice.PermissionWritePost)
	_, moderator := createTestUser(t, app, db, "moderator", userservice.PermissionModerateComment)
	_, reader := createTestUser(t, app, db, "reader")
	_, other := createTestUser(t, app, db, "other")

	return newTestServer(t, app.routes()), testActors{editor: editor, moderator: moderator, reader: reader, other: other}
}

func createPublishedPost(t *testing.T, ts *testServer, token *string, title string) (int, string) {
	t.Helper()

	code, _, body := ts.post(t, "/v1/admin/posts", token, map[string]string{"title": title, "content": "# Heading\n\nBody"})
	require.Equal(t, http.StatusCreated, code, body)

	post := body["post"].(map[string]any)
	id := int(post["id"].(float64))

	code, _, body = ts.put(t, fmt.Sprintf("/v1/admin/posts/%d/publish", id), token, nil)
	require.Equal(t, http.StatusOK, code, body)

	return id, post["slug"].(string)
}

func TestHealthcheck(t *testing.T) {
	ts, _ := setupTestServer(t)

	code, header, body := ts.get(t, "/v1/healthcheck", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, "up", body["system_info"].(map[string]any)["database"])
	assert.NotEmpty(t, header.Get("X-Request-ID"))
}

func TestPostEngagementFlow(t *testing.T) {
	ts, actors := setupTestServer(t)

	code, _, body := ts.post(t, "/v1/admin/posts", actors.editor, map[string]string{"title": "Hello World", "content": "Some *markdown*"})
	require.Equal(t, http.StatusCreated, code, body)
	post := body["post"].(map[string]any)
	assert.Equal(t, "hello-world", post["slug"])
	assert.Equal(t, "draft", post["status"])
	id := int(post["id"].(float64))

	code, _, _ = ts.get(t, "/v1/posts/hello-world", nil)
	assert.Equal(t, http.StatusNotFound, code, "drafts are hidden")

	code, _, _ = ts.put(t, fmt.Sprintf("/v1/admin/posts/%d/publish", id), actors.editor, nil)
	require.Equal(t, http.StatusOK, code)

	code, _, body = ts.get(t, "/v1/posts", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["posts"], 1)

	code, _, body = ts.get(t, "/v1/posts/hello-world", nil)
	require.Equal(t, http.StatusOK, code)
	view := body["view"].(map[string]any)
	assert.Contains(t, view["post"].(map[string]any)["content_html"], "<em>markdown</em>")
	assert.Equal(t, false, view["viewer_has_liked"])

	code, _, body = ts.post(t, "/v1/posts/hello-world/like", actors.reader, nil)
	require.Equal(t, http.StatusOK, code, body)
	view = body["view"].(map[string]any)
	assert.Equal(t, true, view["viewer_has_liked"])
	assert.Equal(t, float64(1), view["like_count"])

	code, _, body = ts.post(t, "/v1/posts/hello-world/like", actors.reader, nil)
	require.Equal(t, http.StatusOK, code, body)
	view = body["view"].(map[string]any)
	assert.Equal(t, false, view["viewer_has_liked"])
	assert.Equal(t, float64(0), view["like_count"])

	code, _, body = ts.post(t, "/v1/posts/hello-world/comments", actors.other, map[string]string{"body": "nice post"})
	require.Equal(t, http.StatusCreated, code, body)
	view = body["view"].(map[string]any)
	assert.Equal(t, true, view["just_submitted"])
	assert.Empty(t, view["approved_comments"])

	code, _, body = ts.get(t, "/v1/admin/comments?approved=false", actors.moderator)
	require.Equal(t, http.StatusOK, code, body)
	pending := body["comments"].([]any)
	require.Len(t, pending, 1)
	comment := pending[0].(map[string]any)
	assert.Equal(t, "other", comment["name"])
	commentID := int(comment["id"].(float64))

	code, _, _ = ts.put(t, fmt.Sprintf("/v1/admin/comments/%d/approve", commentID), actors.moderator, nil)
	require.Equal(t, http.StatusOK, code)

	code, _, body = ts.get(t, "/v1/posts/hello-world", actors.other)
	require.Equal(t, http.StatusOK, code)
	comments := body["view"].(map[string]any)["approved_comments"].([]any)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice post", comments[0].(map[string]any)["body"])

	code, _, _ = ts.put(t, fmt.Sprintf("/v1/admin/posts/%d/unpublish", id), actors.editor, nil)
	require.Equal(t, http.StatusOK, code)

	code, _, _ = ts.get(t, "/v1/posts/hello-world", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _, body = ts.get(t, "/v1/posts", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["posts"])
}

func TestEngagementErrors(t *testing.T) {
	ts, actors := setupTestServer(t)
	_, slug := createPublishedPost(t, ts, actors.editor, "Open Post")

	tests := []struct {
		name           string
		method         string
		path           string
		token          *string
		payload        any
		expectedStatus int
	}{
		{name: "like anonymous", method: http.MethodPost, path: "/v1/posts/" + slug + "/like", expectedStatus: http.StatusUnauthorized},
		{name: "like missing post", method: http.MethodPost, path: "/v1/posts/missing/like", token: actors.reader, expectedStatus: http.StatusNotFound},
		{name: "comment anonymous", method: http.MethodPost, path: "/v1/posts/" + slug + "/comments", payload: map[string]string{"body": "hi"}, expectedStatus: http.StatusUnauthorized},
		{name: "comment missing post", method: http.MethodPost, path: "/v1/posts/missing/comments", token: actors.reader, payload: map[string]string{"body": "hi"}, expectedStatus: http.StatusNotFound},
		{name: "comment unknown field", method: http.MethodPost, path: "/v1/posts/" + slug + "/comments", token: actors.reader, payload: map[string]string{"text": "hi"}, expectedStatus: http.StatusBadRequest},
		{name: "show missing post", method: http.MethodGet, path: "/v1/posts/missing", expectedStatus: http.StatusNotFound},
		{name: "bad limit", method: http.MethodGet, path: "/v1/posts?limit=abc", expectedStatus: http.StatusBadRequest},
		{name: "wrong method", method: http.MethodDelete, path: "/v1/posts/" + slug, expectedStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, body := ts.do(t, tt.method, tt.path, tt.token, tt.payload)
			assert.Equal(t, tt.expectedStatus, code)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCreateComment_Validation(t *testing.T) {
	ts, actors := setupTestServer(t)
	_, slug := createPublishedPost(t, ts, actors.editor, "Strict Post")

	code, _, body := ts.post(t, "/v1/posts/"+slug+"/comments", actors.reader, map[string]string{"body": "   "})

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]any{"body": "must be provided"}, body["error"])
	assert.Equal(t, map[string]any{"body": "   "}, body["input"])

	view := body["view"].(map[string]any)
	assert.Equal(t, slug, view["post"].(map[string]any)["slug"])
	assert.Nil(t, view["just_submitted"])
}

func TestAdminPosts(t *testing.T) {
	ts, actors := setupTestServer(t)
	id, _ := createPublishedPost(t, ts, actors.editor, "First Post")

	tests := []struct {
		name           string
		method         string
		path           string
		token          *string
		payload        any
		expectedStatus int
	}{
		{name: "anonymous", method: http.MethodGet, path: "/v1/admin/posts", expectedStatus: http.StatusUnauthorized},
		{name: "no permission", method: http.MethodGet, path: "/v1/admin/posts", token: actors.reader, expectedStatus: http.StatusForbidden},
		{name: "wrong permission", method: http.MethodPost, path: "/v1/admin/posts", token: actors.moderator, payload: map[string]string{"title": "x", "content": "y"}, expectedStatus: http.StatusForbidden},
		{name: "duplicate title", method: http.MethodPost, path: "/v1/admin/posts", token: actors.editor, payload: map[string]string{"title": "First Post", "slug": "first-post-2", "content": "y"}, expectedStatus: http.StatusBadRequest},
		{name: "duplicate slug", method: http.MethodPost, path: "/v1/admin/posts", token: actors.editor, payload: map[string]string{"title": "Another", "slug": "first-post", "content": "y"}, expectedStatus: http.StatusBadRequest},
		{name: "invalid post", method: http.MethodPost, path: "/v1/admin/posts", token: actors.editor, payload: map[string]string{"title": "", "content": ""}, expectedStatus: http.StatusUnprocessableEntity},
		{name: "list drafts", method: http.MethodGet, path: "/v1/admin/posts?status=draft", token: actors.editor, expectedStatus: http.StatusOK},
		{name: "list bad status", method: http.MethodGet, path: "/v1/admin/posts?status=archived", token: actors.editor, expectedStatus: http.StatusBadRequest},
		{name: "show", method: http.MethodGet, path: fmt.Sprintf("/v1/admin/posts/%d", id), token: actors.editor, expectedStatus: http.StatusOK},
		{name: "show missing", method: http.MethodGet, path: "/v1/admin/posts/999", token: actors.editor, expectedStatus: http.StatusNotFound},
		{name: "bad id", method: http.MethodGet, path: "/v1/admin/posts/abc", token: actors.editor, expectedStatus: http.StatusBadRequest},
		{name: "update", method: http.MethodPut, path: fmt.Sprintf("/v1/admin/posts/%d", id), token: actors.editor, payload: map[string]string{"title": "First Post, Revised", "content": "new"}, expectedStatus: http.StatusOK},
		{name: "publish missing", method: http.MethodPut, path: "/v1/admin/posts/999/publish", token: actors.editor, expectedStatus: http.StatusNotFound},
		{name: "delete", method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/posts/%d", id), token: actors.editor, expectedStatus: http.StatusOK},
		{name: "delete again", method: http.MethodDelete, path: fmt.Sprintf("/v1/admin/posts/%d", id), token: actors.editor, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, body := ts.do(t, tt.method, tt.path, tt.token, tt.payload)
			assert.Equal(t, tt.expectedStatus, code, body)
		})
	}
}

func TestAdminComments(t *testing.T) {
	ts, actors := setupTestServer(t)
	_, slug := createPublishedPost(t, ts, actors.editor, "Busy Post")

	var ids []int
	for _, text := range []string{"first", "second"} {
		code, _, body := ts.post(t, "/v1/posts/"+slug+"/comments", actors.reader, map[string]string{"body": text})
		require.Equal(t, http.StatusCreated, code, body)
	}

	code, _, body := ts.get(t, "/v1/admin/comments", actors.moderator)
	require.Equal(t, http.StatusOK, code)
	for _, c := range body["comments"].([]any) {
		ids = append(ids, int(c.(map[string]any)["id"].(float64)))
	}
	require.Len(t, ids, 2)

	code, _, _ = ts.post(t, "/v1/admin/comments/approve", actors.moderator, map[string]any{"ids": []int{ids[0], 999}})
	assert.Equal(t, http.StatusNotFound, code)

	code, _, body = ts.get(t, "/v1/admin/comments?approved=true", actors.moderator)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["comments"], "a failed batch approves nothing")

	code, _, _ = ts.post(t, "/v1/admin/comments/approve", actors.moderator, map[string]any{"ids": ids})
	assert.Equal(t, http.StatusOK, code)

	code, _, body = ts.get(t, "/v1/posts/"+slug, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["view"].(map[string]any)["approved_comments"], 2)

	code, _, _ = ts.delete(t, fmt.Sprintf("/v1/admin/comments/%d", ids[0]), actors.moderator)
	assert.Equal(t, http.StatusOK, code)

	code, _, _ = ts.put(t, fmt.Sprintf("/v1/admin/comments/%d/approve", ids[0]), actors.moderator, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _, _ = ts.get(t, "/v1/admin/comments?approved=maybe", actors.moderator)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _, _ = ts.get(t, "/v1/admin/comments", actors.editor)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAdminAccess_AfterGrant(t *testing.T) {
	app, db := newTestApplication(t)
	ts := newTestServer(t, app.routes())
	ctx := context.Background()

	// the shape of a user row the auth collaborator creates; nothing else is set on it
	var id int
	err := db.QueryRow("INSERT INTO users (username, email) VALUES ('newmod', 'newmod@example.com') RETURNING id").Scan(&id)
	require.NoError(t, err)

	token, err := app.userService.CreateAccessToken(ctx, id, time.Hour)
	require.NoError(t, err)

	code, _, _ := ts.get(t, "/v1/admin/comments", &token.Plain)
	assert.Equal(t, http.StatusForbidden, code)

	require.NoError(t, app.userService.GrantPermissions(ctx, id, userservice.PermissionModerateComment))

	code, _, body := ts.get(t, "/v1/admin/comments", &token.Plain)
	assert.Equal(t, http.StatusOK, code, body)

	code, _, _ = ts.get(t, "/v1/admin/posts", &token.Plain)
	assert.Equal(t, http.StatusForbidden, code, "only the granted permission applies")
}
