package postservice

import (
	"fmt"
	"time"

	"github.com/sushihentaime/codestar/internal/common"
)

type Status int

const (
	StatusDraft     Status = 0
	StatusPublished Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusPublished:
		return "published"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	status, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}

// ParseStatus accepts "draft" and "published".
func ParseStatus(s string) (Status, error) {
	switch s {
	case "draft":
		return StatusDraft, nil
	case "published":
		return StatusPublished, nil
	default:
		return 0, fmt.Errorf("invalid post status %q", s)
	}
}

type Post struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	// AuthorID references the identity that wrote the post; Author is its display name.
	AuthorID int    `json:"author_id"`
	Author   string `json:"author"`
	// Content is stored in Markdown format. ContentHTML is rendered and sanitized on read.
	Content       string    `json:"content"`
	ContentHTML   string    `json:"content_html,omitempty"`
	Excerpt       string    `json:"excerpt"`
	FeaturedImage string    `json:"featured_image"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PostFilter narrows the admin listing. A nil Status matches every status.
type PostFilter struct {
	Status *Status
	Search string
	Limit  int
	Offset int
}

type PostModel struct {
	db common.DBTX
}

type PostService struct {
	m *PostModel
	c *common.Cache
}
