package likeservice

import (
	"context"
	"database/sql"

	"github.com/sushihentaime/codestar/internal/common"
)

func NewLikeService(db *sql.DB) *LikeService {
	return &LikeService{m: newLikeModel(db), db: db}
}

// WithTx returns a service bound to tx. Toggle then joins tx instead of opening its own.
func (s *LikeService) WithTx(tx *sql.Tx) *LikeService {
	return &LikeService{m: newLikeModel(tx), db: tx}
}

// Toggle flips the like of userID on postID and reports whether the pair is liked afterwards.
// Concurrent toggles of the same pair are serialised, so N toggles leave the pair liked iff N is odd.
// It returns common.ErrRecordNotFound when the post or user does not exist.
func (s *LikeService) Toggle(ctx context.Context, postID, userID int) (bool, error) {
	v := common.NewValidator()
	validateInt(v, postID, "post_id")
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return false, v.ValidationError()
	}

	var liked bool
	err := common.RunInTx(ctx, s.db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(tx *sql.Tx) error {
		m := newLikeModel(tx)

		if err := m.lockPair(ctx, postID, userID); err != nil {
			return err
		}

		removed, err := m.remove(ctx, postID, userID)
		if err != nil {
			return err
		}
		if removed {
			liked = false
			return nil
		}

		if err := m.insert(ctx, postID, userID); err != nil {
			return err
		}
		liked = true

		return nil
	})
	if err != nil {
		return false, err
	}

	return liked, nil
}

// IsLiked reports whether userID currently likes postID. Anonymous viewers pass zero and always get false.
func (s *LikeService) IsLiked(ctx context.Context, postID, userID int) (bool, error) {
	if postID < 1 || userID < 1 {
		return false, nil
	}

	return s.m.exists(ctx, postID, userID)
}

func (s *LikeService) Count(ctx context.Context, postID int) (int, error) {
	if postID < 1 {
		return 0, nil
	}

	return s.m.count(ctx, postID)
}
