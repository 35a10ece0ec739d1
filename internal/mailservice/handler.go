package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sushihentaime/codestar/internal/common"
	"golang.org/x/exp/rand"
)

const (
	maxRetries = 5
	baseDelay  = 500 * time.Millisecond
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, moderator string, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         NewMailer(host, port, username, password, sender, NewTemplate()),
		logger:    logger,
		moderator: moderator,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// NotifyModerators consumes comment.submitted events and mails each new comment to the moderator address.
func (s *MailService) NotifyModerators() {
	msgs, err := s.mb.Consume(common.CommentSubmittedKey, common.CommentExchange, common.CommentSubmittedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data moderationData
				err := json.Unmarshal(msg.Body, &data)
				if err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					msg.Ack(false)
					continue
				}

				if s.sendWithRetry(s.moderator, data.Email, data, "comment_moderation.html") {
					s.logger.Info("moderation email sent", slog.Int("comment_id", data.CommentID))
				} else {
					s.logger.Error("could not send moderation email", slog.Int("comment_id", data.CommentID))
				}
				msg.Ack(false)

			case <-s.ctx.Done():
				s.logger.Info("stopping NotifyModerators due to context cancellation")
				return
			}
		}
	}()
}

// sendWithRetry uses exponential backoff with full jitter. It gives up early when the service is closed.
func (s *MailService) sendWithRetry(recipient, replyTo string, data any, templateFile string) bool {
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.m.send(recipient, replyTo, data, templateFile)
		if err == nil {
			return true
		}

		delay := time.Duration(rand.Int63n(int64(baseDelay) << uint(attempt)))
		s.logger.Info("delaying email", slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return false
		}
	}

	return false
}

func (s *MailService) Close() {
	s.cancel()
}
