package construct

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

type ResourceId struct {
	Provider string `yaml:"provider" toml:"provider"`
	Type     string `yaml:"type" toml:"type"`
	// Namespace is the name of the unit that declares (or imports) the resource. Two units may use the
	// same resource name without colliding.
	Namespace string `yaml:"namespace" toml:"namespace"`
	Name      string `yaml:"name" toml:"name"`
}

var zeroId = ResourceId{}

func (id ResourceId) IsZero() bool {
	return id == zeroId
}

func (id ResourceId) String() string {
	if id.IsZero() {
		return ""
	}

	sb := strings.Builder{}
	const numberOfColons = 3
	sb.Grow(len(id.Provider) + len(id.Type) + len(id.Namespace) + len(id.Name) + numberOfColons)

	sb.WriteString(id.Provider)
	sb.WriteByte(':')
	sb.WriteString(id.Type)
	if id.Namespace != "" || strings.Contains(id.Name, ":") {
		sb.WriteByte(':')
		sb.WriteString(id.Namespace)
	}
	if id.Name != "" {
		sb.WriteByte(':')
		sb.WriteString(id.Name)
	}
	return sb.String()
}

func (id ResourceId) QualifiedTypeName() string {
	return id.Provider + ":" + id.Type
}

// Matches uses `id` (the receiver) as a filter for `other` (the argument) and returns true if all the non-empty
// fields from `id` match the corresponding fields in `other`.
func (id ResourceId) Matches(other ResourceId) bool {
	switch {
	case id.Provider != "" && id.Provider != other.Provider:
		return false
	case id.Type != "" && id.Type != other.Type:
		return false
	case id.Namespace != "" && id.Namespace != other.Namespace:
		return false
	case id.Name != "" && id.Name != other.Name:
		return false
	}
	return true
}

func SelectIds(ids []ResourceId, selector ResourceId) []ResourceId {
	var result []ResourceId
	for _, id := range ids {
		if selector.Matches(id) {
			result = append(result, id)
		}
	}
	return result
}

func ResourceIdLess(a, b ResourceId) bool {
	if a.Provider != b.Provider {
		return a.Provider < b.Provider
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	if a.Namespace != b.Namespace {
		return a.Namespace < b.Namespace
	}
	return a.Name < b.Name
}

var (
	providerPattern  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	typePattern      = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	namespacePattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-]*$`)
	namePattern      = regexp.MustCompile(`^[a-zA-Z0-9_./\-:]*$`)
)

// Validate checks each field of the id against the characters allowed in logical names. Names are later
// used to derive template logical ids, so the allowed set is deliberately narrow.
func (id ResourceId) Validate() error {
	if id.IsZero() {
		return nil
	}
	var err error
	if !providerPattern.MatchString(id.Provider) {
		err = errors.Join(err, fmt.Errorf("invalid provider '%s' (must match %s)", id.Provider, providerPattern))
	}
	if id.Type != "" && !typePattern.MatchString(id.Type) {
		err = errors.Join(err, fmt.Errorf("invalid type '%s' (must match %s)", id.Type, typePattern))
	}
	if !namespacePattern.MatchString(id.Namespace) {
		err = errors.Join(err, fmt.Errorf("invalid namespace '%s' (must match %s)", id.Namespace, namespacePattern))
	}
	if !namePattern.MatchString(id.Name) {
		err = errors.Join(err, fmt.Errorf("invalid name '%s' (must match %s)", id.Name, namePattern))
	}
	if err != nil {
		return fmt.Errorf("invalid resource id '%s': %w", id, err)
	}
	return nil
}

func (id ResourceId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ResourceId) UnmarshalText(data []byte) error {
	parts := strings.SplitN(string(data), ":", 4)
	*id = ResourceId{}
	switch len(parts) {
	case 4:
		id.Namespace = parts[2]
		id.Name = parts[3]
	case 3:
		id.Name = parts[2]
	case 2:
	case 1:
		if parts[0] != "" {
			return fmt.Errorf("must have trailing ':' for provider-only ID")
		}
		return nil
	}
	id.Provider = parts[0]
	id.Type = parts[1]
	return id.Validate()
}

func (id ResourceId) MarshalTOML() ([]byte, error) {
	return id.MarshalText()
}

func (id *ResourceId) UnmarshalTOML(data []byte) error {
	return id.UnmarshalText(data)
}

// ParseId is a convenience wrapper around [ResourceId.UnmarshalText].
func ParseId(s string) (ResourceId, error) {
	var id ResourceId
	err := id.UnmarshalText([]byte(s))
	return id, err
}
