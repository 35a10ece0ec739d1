package mailservice

import (
	"bytes"
	"context"
	"html/template"
	"sync"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/codestar/internal/common"
)

type MailService struct {
	mb        common.MessageConsumer
	m         Mailer
	logger    MailLogger
	moderator string
	ctx       context.Context
	cancel    context.CancelFunc
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient, replyTo string, data any, templateFile string) error
}

type Template struct {
	set map[string]*template.Template
}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}

// moderationData is the payload of a comment.submitted event as the moderation mail renders it.
type moderationData struct {
	CommentID int    `json:"comment_id"`
	PostTitle string `json:"post_title"`
	PostSlug  string `json:"post_slug"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Body      string `json:"body"`
}
