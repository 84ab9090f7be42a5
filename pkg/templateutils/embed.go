package templateutils

import (
	"bytes"
	"io/fs"
	"text/template"

	sprig "github.com/Masterminds/sprig/v3"
)

// MustTemplate parses `name` from `fsys` with [Funcs] and sprig's hermetic functions available. It panics if the
// template is missing or invalid, so it is meant for embedded templates.
func MustTemplate(fsys fs.FS, name string) *template.Template {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		panic(err)
	}
	t, err := template.New(name).
		Funcs(Funcs).
		Funcs(sprig.HermeticTxtFuncMap()).
		Parse(string(content))
	if err != nil {
		panic(err)
	}
	return t
}

// Execute renders `t` with `data` into a new byte slice.
func Execute(t *template.Template, data any) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := t.Execute(buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
