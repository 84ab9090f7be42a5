package templateutils

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

var Funcs = template.FuncMap{
	"json":        ToJSON,
	"jsonPretty":  ToJSONPretty,
	"yamlScalar":  YAMLScalar,
	"fileBase":    filepath.Base,
	"fileTrimExt": TrimExt,
	"joinString":  strings.Join,
}

func ToJSON(v any) (string, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func ToJSONPretty(v any) (string, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// YAMLScalar renders `v` as a single line YAML value, quoting strings only when a plain scalar would be read
// back as something else.
func YAMLScalar(v any) (string, error) {
	b, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func TrimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
