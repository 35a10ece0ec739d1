package mailservice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTemplate(t *testing.T) {
	template := NewTemplate()

	testCases := []struct {
		name         string
		templateName string
		data         any
		expectedErr  bool
	}{
		{
			name:         "success",
			templateName: "comment_moderation.html",
			data: moderationData{
				CommentID: 7,
				PostTitle: "Hello World",
				PostSlug:  "hello-world",
				Name:      "alice",
				Email:     "alice@example.com",
				Body:      "<script>alert(1)</script>",
			},
			expectedErr: false,
		},
		{
			name:         "invalid template name",
			templateName: "invalid_template.html",
			data:         nil,
			expectedErr:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, p, h, err := template.ParseTemplate(tc.templateName, tc.data)
			assert.Equal(t, tc.expectedErr, err != nil)

			if err == nil {
				assert.NotEmpty(t, s.String())
				assert.NotEmpty(t, p.String())
				assert.NotEmpty(t, h.String())
				assert.Contains(t, s.String(), "Hello World")
				assert.NotContains(t, h.String(), "<script>")
			}
		})
	}
}
