package commentservice

import (
	"time"

	"github.com/sushihentaime/codestar/internal/common"
)

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Approved  bool      `json:"approved"`
}

// Submitter is the identity captured on a comment at submission time.
type Submitter struct {
	Name  string
	Email string
}

type CommentFilter struct {
	PostID   int
	Approved *bool
	Search   string
	Limit    int
	Offset   int
}

type CommentModel struct {
	db common.DBTX
}

type CommentService struct {
	m  *CommentModel
	db common.DBTX
}
