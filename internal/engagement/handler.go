package engagement

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/sushihentaime/codestar/internal/commentservice"
	"github.com/sushihentaime/codestar/internal/common"
	"github.com/sushihentaime/codestar/internal/likeservice"
	"github.com/sushihentaime/codestar/internal/postservice"
	"github.com/sushihentaime/codestar/internal/userservice"
)

const maxToggleAttempts = 3

func NewEngagementService(db *sql.DB, posts *postservice.PostService, likes *likeservice.LikeService, comments *commentservice.CommentService, mb common.MessageProducer, logger Logger) *EngagementService {
	return &EngagementService{
		db:       db,
		posts:    posts,
		likes:    likes,
		comments: comments,
		mb:       mb,
		logger:   logger,
	}
}

// ViewPost reads a published post with its approved comments and the viewer's like state from one snapshot.
// viewer may be nil or anonymous.
func (s *EngagementService) ViewPost(ctx context.Context, slug string, viewer *userservice.User) (*PostView, error) {
	var view *PostView

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := common.RunInTx(ctx, s.db, opts, func(tx *sql.Tx) error {
		post, err := s.posts.WithTx(tx).GetPublishedBySlug(ctx, slug)
		if err != nil {
			return err
		}

		view, err = s.buildView(ctx, tx, post, viewer)
		return err
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// LikeToggle flips the viewer's like on a published post and returns the refreshed view.
func (s *EngagementService) LikeToggle(ctx context.Context, slug string, viewer *userservice.User) (*PostView, error) {
	if viewer.IsAnonymous() {
		return nil, ErrAuthenticationRequired
	}

	var view *PostView
	var err error

	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		view, err = s.likeToggle(ctx, slug, viewer)
		if !errors.Is(err, common.ErrConflict) {
			break
		}

		s.logger.Info("retrying like toggle", slog.String("slug", slug), slog.Int("user_id", viewer.ID), slog.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	return view, nil
}

func (s *EngagementService) likeToggle(ctx context.Context, slug string, viewer *userservice.User) (*PostView, error) {
	var view *PostView

	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	err := common.RunInTx(ctx, s.db, opts, func(tx *sql.Tx) error {
		post, err := s.posts.WithTx(tx).GetPublishedBySlug(ctx, slug)
		if err != nil {
			return err
		}

		_, err = s.likes.WithTx(tx).Toggle(ctx, post.ID, viewer.ID)
		if err != nil {
			return err
		}

		view, err = s.buildView(ctx, tx, post, viewer)
		return err
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// SubmitComment stores a pending comment from viewer on a published post. The returned view is flagged
// JustSubmitted and does not contain the new comment. An invalid body yields the unchanged view together
// with a common.ValidationError carrying the rejected input.
func (s *EngagementService) SubmitComment(ctx context.Context, slug string, viewer *userservice.User, body string) (*PostView, error) {
	if viewer.IsAnonymous() {
		return nil, ErrAuthenticationRequired
	}

	var (
		view    *PostView
		comment *commentservice.Comment
		invalid error
	)

	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	err := common.RunInTx(ctx, s.db, opts, func(tx *sql.Tx) error {
		post, err := s.posts.WithTx(tx).GetPublishedBySlug(ctx, slug)
		if err != nil {
			return err
		}

		who := commentservice.Submitter{Name: viewer.Username, Email: viewer.Email}
		comment, err = s.comments.WithTx(tx).Submit(ctx, post.ID, who, body)
		if err != nil {
			var vErr common.ValidationError
			if !errors.As(err, &vErr) {
				return err
			}
			invalid = err
		}

		view, err = s.buildView(ctx, tx, post, viewer)
		return err
	})
	if err != nil {
		return nil, err
	}

	if invalid != nil {
		return view, invalid
	}

	view.JustSubmitted = true
	s.publishSubmitted(ctx, view.Post, comment)

	return view, nil
}

func (s *EngagementService) buildView(ctx context.Context, tx *sql.Tx, post *postservice.Post, viewer *userservice.User) (*PostView, error) {
	comments, err := s.comments.WithTx(tx).ListApproved(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	likes := s.likes.WithTx(tx)

	count, err := likes.Count(ctx, post.ID)
	if err != nil {
		return nil, err
	}

	var liked bool
	if !viewer.IsAnonymous() {
		liked, err = likes.IsLiked(ctx, post.ID, viewer.ID)
		if err != nil {
			return nil, err
		}
	}

	return &PostView{
		Post:             post,
		ApprovedComments: comments,
		ViewerHasLiked:   liked,
		LikeCount:        count,
	}, nil
}

// publishSubmitted notifies moderators. The comment is already committed, so failures are only logged.
func (s *EngagementService) publishSubmitted(ctx context.Context, post *postservice.Post, c *commentservice.Comment) {
	if s.mb == nil {
		return
	}

	msg, err := json.Marshal(CommentSubmitted{
		CommentID: c.ID,
		PostID:    post.ID,
		PostTitle: post.Title,
		PostSlug:  post.Slug,
		Name:      c.Name,
		Email:     c.Email,
		Body:      c.Body,
	})
	if err != nil {
		s.logger.Error("could not marshal comment event", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err = s.mb.Publish(ctx, msg, common.CommentSubmittedKey, common.CommentExchange)
	if err != nil {
		s.logger.Error("could not publish comment event", slog.Int("comment_id", c.ID), slog.String("error", err.Error()))
	}
}
