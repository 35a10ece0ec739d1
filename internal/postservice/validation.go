package postservice

import (
	"regexp"

	"github.com/sushihentaime/codestar/internal/common"
)

var (
	SlugRX = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

func validateTitle(v *common.Validator, title string) {
	v.Check(v.NotBlank(title), "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 200), "title", "must not be more than 200 characters long")
}

func validateSlug(v *common.Validator, slug string) {
	v.Check(slug != "", "slug", "must be provided")
	v.Check(v.CheckStringLength(slug, 1, 200), "slug", "must not be more than 200 characters long")
	v.Check(SlugRX.MatchString(slug), "slug", "must only contain letters, numbers, underscores, and hyphens")
}

func validateContent(v *common.Validator, content string) {
	v.Check(v.NotBlank(content), "content", "must be provided")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
