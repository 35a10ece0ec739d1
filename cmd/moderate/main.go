// Command moderate is the moderation console: it publishes posts, reviews pending comments and
// issues access tokens from the command line.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/viper"
	"github.com/sushihentaime/codestar/internal/commentservice"
	"github.com/sushihentaime/codestar/internal/common"
	"github.com/sushihentaime/codestar/internal/postservice"
	"github.com/sushihentaime/codestar/internal/userservice"
)

const usage = `Usage:
  moderate publish <post_id>                  publish a draft
  moderate unpublish <post_id>                move a post back to draft
  moderate pending [limit]                    list comments awaiting approval
  moderate approve <comment_id>...            approve comments (all or none)
  moderate remove <comment_id>                delete a comment
  moderate grant <user_id> <permission>...    grant post:write and/or comment:moderate
  moderate token <user_id>                    issue an access token for a user
`

type dbConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     string `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	Name     string `mapstructure:"POSTGRES_DB"`
}

type console struct {
	posts    *postservice.PostService
	comments *commentservice.CommentService
	users    *userservice.UserService
	out      io.Writer
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := loadConfig(os.Getenv("CODESTAR_ENV_FILE"))
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := common.NewDB(cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, 2, 2, time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = newConsole(db, os.Stdout).run(ctx, os.Args[1:])
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Error("command failed", slog.String("command", os.Args[1]), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the database settings from path, .env by default. The environment overrides the file.
func loadConfig(path string) (*dbConfig, error) {
	if path == "" {
		path = ".env"
	}

	v := viper.New()
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	for _, key := range []string{"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB"} {
		v.SetDefault(key, "")
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var cfg dbConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func newConsole(db *sql.DB, out io.Writer) *console {
	return &console{
		posts:    postservice.NewPostService(db, nil),
		comments: commentservice.NewCommentService(db),
		users:    userservice.NewUserService(db, nil),
		out:      out,
	}
}

var errUsage = errors.New("invalid usage")

func (c *console) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	command, args := args[0], args[1:]

	switch command {
	case "publish", "unpublish":
		id, err := singleID(args)
		if err != nil {
			return err
		}
		if command == "publish" {
			err = c.posts.PublishPost(ctx, id)
		} else {
			err = c.posts.UnpublishPost(ctx, id)
		}
		if err != nil {
			return describe(err, "post", id)
		}
		fmt.Fprintf(c.out, "post %d %sed\n", id, command)

	case "pending":
		limit := commentservice.DefaultPageSize
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return errUsage
			}
			limit = n
		}
		return c.pending(ctx, limit)

	case "approve":
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		if err := c.comments.ApproveMany(ctx, ids); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%d comment(s) approved\n", len(ids))

	case "remove":
		id, err := singleID(args)
		if err != nil {
			return err
		}
		if err := c.comments.DeleteComment(ctx, id); err != nil {
			return describe(err, "comment", id)
		}
		fmt.Fprintf(c.out, "comment %d removed\n", id)

	case "grant":
		if len(args) < 2 {
			return errUsage
		}
		id, err := singleID(args[:1])
		if err != nil {
			return err
		}
		var permissions []userservice.Permission
		for _, p := range args[1:] {
			permissions = append(permissions, userservice.Permission(p))
		}
		if err := c.users.GrantPermissions(ctx, id, permissions...); err != nil {
			return describe(err, "user", id)
		}
		fmt.Fprintf(c.out, "granted %s to user %d\n", strings.Join(args[1:], ", "), id)

	case "token":
		id, err := singleID(args)
		if err != nil {
			return err
		}
		token, err := c.users.CreateAccessToken(ctx, id, 0)
		if err != nil {
			return describe(err, "user", id)
		}
		fmt.Fprintf(c.out, "%s (expires %s)\n", token.Plain, token.Expiry.Format(time.RFC3339))

	default:
		return errUsage
	}

	return nil
}

func (c *console) pending(ctx context.Context, limit int) error {
	approved := false

	comments, err := c.comments.ListComments(ctx, commentservice.CommentFilter{Approved: &approved, Limit: limit})
	if err != nil {
		return err
	}

	if len(comments) == 0 {
		fmt.Fprintln(c.out, "no comments awaiting moderation")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPOST\tNAME\tSUBMITTED\tBODY")
	for _, cm := range comments {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", cm.ID, cm.PostID, cm.Name, cm.CreatedAt.Format(time.DateTime), excerpt(cm.Body, 60))
	}

	return tw.Flush()
}

func singleID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}

	ids, err := parseIDs(args)
	if err != nil {
		return 0, err
	}

	return ids[0], nil
}

func parseIDs(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, errUsage
	}

	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func describe(err error, kind string, id int) error {
	if errors.Is(err, common.ErrRecordNotFound) || errors.Is(err, userservice.ErrNotFound) {
		return fmt.Errorf("%s %d not found", kind, id)
	}

	return err
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")

	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}
