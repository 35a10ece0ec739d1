package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/codestar/internal/common"
	"github.com/sushihentaime/codestar/internal/userservice"
)

func setupTestConsole(t *testing.T) (*console, *bytes.Buffer, *sql.DB, int) {
	db := common.TestDB("file://../../migrations", t)
	authorID := common.TestUser(t, db, "author")

	var out bytes.Buffer
	return newConsole(db, &out), &out, db, authorID
}

func TestRun_Usage(t *testing.T) {
	c := &console{out: new(bytes.Buffer)}

	tests := [][]string{
		nil,
		{"unknown"},
		{"publish"},
		{"publish", "1", "2"},
		{"pending", "zero"},
		{"grant", "1"},
	}

	for _, args := range tests {
		err := c.run(context.Background(), args)
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}

	err := c.run(context.Background(), []string{"remove", "abc"})
	assert.EqualError(t, err, `invalid id "abc"`)
}

func TestRun_PublishAndModerate(t *testing.T) {
	c, out, db, authorID := setupTestConsole(t)
	ctx := context.Background()

	var postID int
	err := db.QueryRow(`INSERT INTO posts (title, slug, author_id, content) VALUES ('Draft', 'draft', $1, 'x') RETURNING id`, authorID).Scan(&postID)
	require.NoError(t, err)

	require.NoError(t, c.run(ctx, []string{"publish", itoa(postID)}))
	assert.Contains(t, out.String(), "published")

	err = c.run(ctx, []string{"publish", "999"})
	assert.EqualError(t, err, "post 999 not found")

	var commentID int
	err = db.QueryRow(`INSERT INTO comments (post_id, name, email, body) VALUES ($1, 'alice', 'alice@example.com', 'please approve me') RETURNING id`, postID).Scan(&commentID)
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"pending"}))
	assert.Contains(t, out.String(), "please approve me")
	assert.Contains(t, out.String(), "alice")

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"approve", itoa(commentID)}))
	assert.Contains(t, out.String(), "1 comment(s) approved")

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"pending"}))
	assert.Contains(t, out.String(), "no comments awaiting moderation")

	require.NoError(t, c.run(ctx, []string{"remove", itoa(commentID)}))
	assert.EqualError(t, c.run(ctx, []string{"remove", itoa(commentID)}), "comment "+itoa(commentID)+" not found")

	require.NoError(t, c.run(ctx, []string{"unpublish", itoa(postID)}))
}

func TestRun_GrantAndToken(t *testing.T) {
	c, out, _, userID := setupTestConsole(t)
	ctx := context.Background()

	require.NoError(t, c.run(ctx, []string{"grant", itoa(userID), string(userservice.PermissionModerateComment)}))

	out.Reset()
	require.NoError(t, c.run(ctx, []string{"token", itoa(userID)}))

	token := bytes.Fields(out.Bytes())[0]
	user, err := c.users.GetUserByAccessToken(ctx, string(token))
	require.NoError(t, err)
	assert.True(t, user.HasPermission(userservice.PermissionModerateComment))

	assert.EqualError(t, c.run(ctx, []string{"token", "999"}), "user 999 not found")

	out.Reset()
	err = c.run(ctx, []string{"grant", itoa(userID), "coment:moderate"})
	var vErr common.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, `unknown permission "coment:moderate"`, vErr.Errors["permissions"])
	assert.Empty(t, out.String())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moderate.env")
	require.NoError(t, os.WriteFile(path, []byte("POSTGRES_USER=mod\nPOSTGRES_DB=codestar\n"), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "mod", cfg.User)
	assert.Equal(t, "codestar", cfg.Name)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
