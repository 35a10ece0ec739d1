package userservice

import (
	"context"
	"database/sql"
	"time"

	"github.com/sushihentaime/codestar/internal/common"
)

func NewUserService(db *sql.DB, c *common.Cache) *UserService {
	return &UserService{
		m: newUserModel(db),
		c: c,
	}
}

// GetUserByAccessToken resolves a bearer token to the identity it was issued for.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	hash := hashToken(token)

	key := common.CacheKeyUserByAccessToken(hash)
	if s.c != nil {
		if cached, ok := s.c.Get(key); ok {
			entry := cached.(cachedIdentity)
			if time.Now().Before(entry.expiry) {
				return entry.user, nil
			}
			s.c.Delete(key)
		}
	}

	user, expiry, err := s.m.getUserByToken(ctx, hash)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(key, cachedIdentity{user: user, expiry: expiry})
	}

	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (*User, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	return s.m.getUserByID(ctx, id)
}

// CreateAccessToken issues an access token for an existing user. The external auth collaborator calls this after
// it has verified the user's credentials.
func (s *UserService) CreateAccessToken(ctx context.Context, userID int, ttl time.Duration) (*Token, error) {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if ttl <= 0 {
		ttl = AccessTokenTime
	}

	token, err := newToken(userID, ttl)
	if err != nil {
		return nil, err
	}

	err = s.m.insertAuthToken(ctx, token)
	if err != nil {
		return nil, err
	}

	return token, nil
}

// RevokeAccessTokens deletes every access token of the user.
func (s *UserService) RevokeAccessTokens(ctx context.Context, userID int) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	err := s.m.deleteAuthTokens(ctx, userID)
	if err != nil {
		return err
	}

	if s.c != nil {
		s.c.Flush()
	}

	return nil
}

// GrantPermissions adds the permissions to the user. Granting a permission twice is a no-op. Permissions
// outside KnownPermissions are rejected.
func (s *UserService) GrantPermissions(ctx context.Context, userID int, permissions ...Permission) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	validatePermissions(v, permissions)
	if !v.Valid() {
		return v.ValidationError()
	}

	err := common.RunInTx(ctx, s.m.db, nil, func(tx *sql.Tx) error {
		return s.m.addUserPermission(tx, ctx, userID, permissions...)
	})
	if err != nil {
		return err
	}

	// cached identities carry their permissions
	if s.c != nil {
		s.c.Flush()
	}

	return nil
}

func (u *User) IsAnonymous() bool {
	return u == nil || u == &AnonymousUser
}

func (u *User) HasPermission(permission Permission) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}

	return false
}
