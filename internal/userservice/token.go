package userservice

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"time"

	"github.com/sushihentaime/codestar/internal/common"
)

func hashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

func newToken(userID int, ttl time.Duration) (*Token, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	token := &Token{
		Plain:  base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes),
		UserID: userID,
		Expiry: time.Now().Add(ttl),
	}

	token.Hash = hashToken(token.Plain)

	return token, nil
}

func (m *DBModel) insertAuthToken(ctx context.Context, token *Token) error {
	query := `
		INSERT INTO auth_tokens (access_token, user_id, access_token_expiry)
		VALUES ($1, $2, $3)`

	_, err := m.db.ExecContext(ctx, query, token.Hash, token.UserID, token.Expiry)
	if err != nil {
		switch {
		case common.ForeignKeyViolation(err, "auth_tokens_user_id_fkey"):
			return ErrNotFound
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) deleteAuthTokens(ctx context.Context, userID int) error {
	_, err := m.db.ExecContext(ctx, "DELETE FROM auth_tokens WHERE user_id = $1", userID)
	return err
}
