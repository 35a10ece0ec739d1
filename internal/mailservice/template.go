package mailservice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewTemplate parses every embedded mail template once.
func NewTemplate() *Template {
	tp := &Template{set: make(map[string]*template.Template)}

	files, _ := fs.Glob(templateFS, "templates/*.html")
	for _, file := range files {
		tp.set[path.Base(file)] = template.Must(template.New("email").ParseFS(templateFS, file))
	}

	return tp
}

// ParseTemplate renders the subject, plainBody and htmlBody blocks of the named template.
func (tp *Template) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	t, ok := tp.set[name]
	if !ok {
		return nil, nil, nil, fmt.Errorf("could not parse template: unknown template %q", name)
	}

	var out [3]*bytes.Buffer
	for i, block := range []string{"subject", "plainBody", "htmlBody"} {
		out[i] = new(bytes.Buffer)
		if err := t.ExecuteTemplate(out[i], block, data); err != nil {
			return nil, nil, nil, err
		}
	}

	return out[0], out[1], out[2], nil
}
