package engagement

import (
	"database/sql"
	"errors"

	"github.com/sushihentaime/codestar/internal/commentservice"
	"github.com/sushihentaime/codestar/internal/common"
	"github.com/sushihentaime/codestar/internal/likeservice"
	"github.com/sushihentaime/codestar/internal/postservice"
)

var ErrAuthenticationRequired = errors.New("you must be authenticated to access this resource")

// PostView is what a reader sees on a post page.
type PostView struct {
	Post             *postservice.Post        `json:"post"`
	ApprovedComments []commentservice.Comment `json:"approved_comments"`
	ViewerHasLiked   bool                     `json:"viewer_has_liked"`
	LikeCount        int                      `json:"like_count"`
	JustSubmitted    bool                     `json:"just_submitted,omitempty"`
}

// CommentSubmitted is published on common.CommentSubmittedKey once a comment is stored.
type CommentSubmitted struct {
	CommentID int    `json:"comment_id"`
	PostID    int    `json:"post_id"`
	PostTitle string `json:"post_title"`
	PostSlug  string `json:"post_slug"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Body      string `json:"body"`
}

type Logger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type EngagementService struct {
	db       *sql.DB
	posts    *postservice.PostService
	likes    *likeservice.LikeService
	comments *commentservice.CommentService
	mb       common.MessageProducer
	logger   Logger
}
