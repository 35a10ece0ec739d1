package userservice

import (
	"database/sql"
	"time"

	"github.com/sushihentaime/codestar/internal/common"
)

type Permission string
type Permissions []Permission

const (
	AccessTokenTime time.Duration = 7 * 24 * time.Hour

	PermissionWritePost       Permission = "post:write"
	PermissionModerateComment Permission = "comment:moderate"
)

// KnownPermissions lists every permission a route checks.
var KnownPermissions = Permissions{PermissionWritePost, PermissionModerateComment}

var (
	AnonymousUser = User{}
)

type UserService struct {
	m *DBModel
	c *common.Cache
}

type DBModel struct {
	db *sql.DB
}

// User is the identity of the caller as supplied by the external auth collaborator.
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`

	Permissions Permissions `json:"permissions"`
}

// cachedIdentity is what the token cache holds. Expiry is the token's, not the cache entry's.
type cachedIdentity struct {
	user   *User
	expiry time.Time
}

type Token struct {
	Plain  string    `json:"token"`
	Hash   []byte    `json:"-"`
	UserID int       `json:"-"`
	Expiry time.Time `json:"expiry"`
}
