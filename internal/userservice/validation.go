package userservice

import (
	"fmt"
	"slices"

	"github.com/sushihentaime/codestar/internal/common"
)

func ValidateToken(v *common.Validator, token string) {
	v.Check(token != "", "token", "must be provided")
	v.Check(len(token) == 26, "token", "invalid token")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}

func validatePermissions(v *common.Validator, permissions []Permission) {
	v.Check(len(permissions) > 0, "permissions", "must contain at least one permission")
	for _, p := range permissions {
		v.Check(slices.Contains(KnownPermissions, p), "permissions", fmt.Sprintf("unknown permission %q", p))
	}
}
