package commentservice

import (
	"github.com/sushihentaime/codestar/internal/common"
)

const (
	MaxBodyLength = 5000
	// MaxNameLength matches users.username.
	MaxNameLength = 150
)

func validateBody(v *common.Validator, body string) {
	v.Check(v.NotBlank(body), "body", "must be provided")
	v.Check(v.CheckStringLength(body, 0, MaxBodyLength), "body", "must not be more than 5000 characters long")
}

func validateName(v *common.Validator, name string) {
	v.Check(v.CheckStringLength(name, 1, MaxNameLength), "name", "must be between 1 and 150 characters long")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
