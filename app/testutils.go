package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sushihentaime/codestar/internal/commentservice"
	"github.com/sushihentaime/codestar/internal/common"
	"github.com/sushihentaime/codestar/internal/engagement"
	"github.com/sushihentaime/codestar/internal/likeservice"
	"github.com/sushihentaime/codestar/internal/postservice"
	"github.com/sushihentaime/codestar/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

func newTestApplication(t *testing.T) (*application, *sql.DB) {
	db := common.TestDB("file://../migrations", t)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	broker, err := common.NewMessageBroker(common.TestRabbitMQ(t))
	require.NoError(t, err)
	t.Cleanup(func() { broker.Close() })

	err = common.SetupCommentExchange(broker)
	require.NoError(t, err)

	cfg, err := loadConfig("../.test.env")
	require.NoError(t, err)

	cache := common.NewCache(cfg.CacheTTL, 2*cfg.CacheTTL)
	postService := postservice.NewPostService(db, cache)
	commentService := commentservice.NewCommentService(db)

	app := &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		userService:    userservice.NewUserService(db, cache),
		postService:    postService,
		commentService: commentService,
		engagement:     engagement.NewEngagementService(db, postService, likeservice.NewLikeService(db), commentService, broker, logger),
		broker:         broker,
		limiter:        newIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
	t.Cleanup(app.limiter.Stop)

	return app, db
}

// createTestUser inserts a user holding permissions and returns the user and a bearer token.
func createTestUser(t *testing.T, app *application, db *sql.DB, username string, permissions ...userservice.Permission) (*userservice.User, *string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := common.TestUser(t, db, username)

	if len(permissions) > 0 {
		require.NoError(t, app.userService.GrantPermissions(ctx, id, permissions...))
	}

	token, err := app.userService.CreateAccessToken(ctx, id, time.Hour)
	require.NoError(t, err)

	user, err := app.userService.GetUserByID(ctx, id)
	require.NoError(t, err)

	return user, &token.Plain
}

func (ts *testServer) do(t *testing.T, method, path string, token *string, payload any) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, token, nil)
}

func (ts *testServer) post(t *testing.T, path string, token *string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, token, payload)
}

func (ts *testServer) put(t *testing.T, path string, token *string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPut, path, token, payload)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, token, nil)
}
