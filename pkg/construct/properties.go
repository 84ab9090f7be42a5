package construct

import (
	"fmt"
	"strconv"
	"strings"
)

type Properties map[string]any

// PropertyPathError is returned when a path does not resolve against a resource's properties.
type PropertyPathError struct {
	Path  []string
	Cause error
}

func (e *PropertyPathError) Error() string {
	return fmt.Sprintf("error in path %s: %v", strings.Join(e.Path, ""), e.Cause)
}

func (e *PropertyPathError) Unwrap() error {
	return e.Cause
}

// splitPath splits a path such as `a.b[1].c` into `[a .b [1] .c]`.
func splitPath(path string) []string {
	var parts []string
	var delim string
	for path != "" {
		partIdx := strings.IndexAny(path, ".[")
		var part string
		if partIdx == -1 {
			part = delim + path
			path = ""
		} else {
			part = delim + path[:partIdx]
			delim = path[partIdx : partIdx+1]
			path = path[partIdx+1:]
		}
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func indexOf(part string) (int, error) {
	return strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(part, "["), "]"))
}

// GetProperty returns the value at `path`, or nil if any element along the path is unset.
func (r *Resource) GetProperty(path string) (any, error) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty path")
	}
	var current any = map[string]any(r.Properties)
	for i, part := range parts {
		if current == nil {
			return nil, nil
		}
		switch c := current.(type) {
		case map[string]any:
			current = c[strings.TrimPrefix(part, ".")]
		case Properties:
			current = c[strings.TrimPrefix(part, ".")]
		case []any:
			idx, err := indexOf(part)
			if err != nil {
				return nil, &PropertyPathError{Path: parts[:i+1], Cause: err}
			}
			if idx < 0 || idx >= len(c) {
				return nil, nil
			}
			current = c[idx]
		default:
			return nil, &PropertyPathError{
				Path:  parts[:i+1],
				Cause: fmt.Errorf("expected map or array, got %T", current),
			}
		}
	}
	return current, nil
}

// SetProperty sets the value at `path`, creating intermediate maps as needed.
func (r *Resource) SetProperty(path string, value any) error {
	if r.Properties == nil {
		r.Properties = make(Properties)
	}
	parts := splitPath(path)
	if len(parts) == 0 {
		return fmt.Errorf("empty path")
	}
	var current any = map[string]any(r.Properties)
	for i, part := range parts {
		last := i == len(parts)-1
		switch c := current.(type) {
		case map[string]any:
			key := strings.TrimPrefix(part, ".")
			if last {
				c[key] = value
				return nil
			}
			next, ok := c[key]
			if !ok || next == nil {
				next = map[string]any{}
				c[key] = next
			}
			current = next

		case []any:
			idx, err := indexOf(part)
			if err != nil {
				return &PropertyPathError{Path: parts[:i+1], Cause: err}
			}
			if idx < 0 || idx >= len(c) {
				return &PropertyPathError{
					Path:  parts[:i+1],
					Cause: fmt.Errorf("array index out of bounds: %d (length %d)", idx, len(c)),
				}
			}
			if last {
				c[idx] = value
				return nil
			}
			current = c[idx]

		default:
			return &PropertyPathError{
				Path:  parts[:i+1],
				Cause: fmt.Errorf("expected map or array, got %T", current),
			}
		}
	}
	return nil
}

// AppendProperty appends `value` to the list at `path`, creating the list if it is unset.
func (r *Resource) AppendProperty(path string, value any) error {
	existing, err := r.GetProperty(path)
	if err != nil {
		return err
	}
	switch list := existing.(type) {
	case nil:
		return r.SetProperty(path, []any{value})
	case []any:
		return r.SetProperty(path, append(list, value))
	default:
		return &PropertyPathError{Path: splitPath(path), Cause: fmt.Errorf("expected array, got %T", existing)}
	}
}
