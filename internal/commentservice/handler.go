package commentservice

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sushihentaime/codestar/internal/common"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func NewCommentService(db *sql.DB) *CommentService {
	return &CommentService{m: newCommentModel(db), db: db}
}

// WithTx returns a service whose statements run inside tx.
func (s *CommentService) WithTx(tx *sql.Tx) *CommentService {
	return &CommentService{m: newCommentModel(tx), db: tx}
}

// Submit stores a pending comment on a published post. The submitter's name and email are copied
// onto the comment. The body is stored as typed, minus surrounding whitespace; it is escaped where it is
// rendered. A rejected body is returned inside the common.ValidationError.
func (s *CommentService) Submit(ctx context.Context, postID int, who Submitter, body string) (*Comment, error) {
	clean := strings.TrimSpace(body)

	v := common.NewValidator()
	v.Keep("body", body)
	validateInt(v, postID, "post_id")
	validateName(v, who.Name)
	validateBody(v, clean)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.insert(ctx, postID, who.Name, who.Email, clean)
}

func (s *CommentService) GetComment(ctx context.Context, id int) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getByID(ctx, id)
}

// Approve marks a comment visible. Approving an approved comment is a no-op.
func (s *CommentService) Approve(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.approve(ctx, id)
}

// ApproveMany approves every comment in ids or none of them. It fails with common.ErrRecordNotFound
// if any id does not exist.
func (s *CommentService) ApproveMany(ctx context.Context, ids []int) error {
	v := common.NewValidator()
	v.Check(len(ids) > 0, "ids", "must contain at least one id")

	seen := make(map[int]struct{}, len(ids))
	unique := make([]int, 0, len(ids))
	for _, id := range ids {
		validateInt(v, id, "ids")
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if !v.Valid() {
		return v.ValidationError()
	}

	return common.RunInTx(ctx, s.db, nil, func(tx *sql.Tx) error {
		n, err := newCommentModel(tx).approveMany(ctx, unique)
		if err != nil {
			return err
		}

		if n != len(unique) {
			return fmt.Errorf("%w: %d of %d comments", common.ErrRecordNotFound, len(unique)-n, len(unique))
		}

		return nil
	})
}

// ListApproved returns the visible comments of a post, oldest first.
func (s *CommentService) ListApproved(ctx context.Context, postID int) ([]Comment, error) {
	return s.m.listApproved(ctx, postID)
}

// ListComments is the moderation queue. It lists every comment matching f, oldest first.
func (s *CommentService) ListComments(ctx context.Context, f CommentFilter) ([]Comment, error) {
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.Search = strings.TrimSpace(f.Search)

	return s.m.list(ctx, f)
}

// DeleteComment is the moderator's removal action.
func (s *CommentService) DeleteComment(ctx context.Context, id int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	return s.m.delete(ctx, id)
}
