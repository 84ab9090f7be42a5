package aws

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

const PolicyVersion = "2012-10-17"

// PolicyStatement is a single statement of a resource policy document. Values may be intrinsics (such as a
// [construct.PropertyRef] to an access identity) which are resolved at synthesis.
type PolicyStatement struct {
	Sid       string         `mapstructure:"Sid"`
	Effect    string         `mapstructure:"Effect"`
	Principal map[string]any `mapstructure:"Principal"`
	Action    []string       `mapstructure:"Action"`
	Resource  []any          `mapstructure:"Resource"`
	Condition map[string]any `mapstructure:"Condition"`
}

func (s PolicyStatement) Validate() error {
	switch {
	case s.Sid == "":
		return fmt.Errorf("policy statement is missing a Sid")
	case s.Effect != "Allow" && s.Effect != "Deny":
		return fmt.Errorf("policy statement %s: invalid effect %q", s.Sid, s.Effect)
	case len(s.Principal) == 0:
		return fmt.Errorf("policy statement %s: missing principal", s.Sid)
	case len(s.Action) == 0:
		return fmt.Errorf("policy statement %s: missing action", s.Sid)
	case len(s.Resource) == 0:
		return fmt.Errorf("policy statement %s: missing resource", s.Sid)
	}
	return nil
}

// ToMap renders the statement as it is stored in a policy's properties.
func (s PolicyStatement) ToMap() map[string]any {
	m := map[string]any{
		"Sid":       s.Sid,
		"Effect":    s.Effect,
		"Principal": s.Principal,
		"Action":    toAnySlice(s.Action),
		"Resource":  s.Resource,
	}
	if len(s.Condition) > 0 {
		m["Condition"] = s.Condition
	}
	return m
}

// Equal compares statements by their rendered form.
func (s PolicyStatement) Equal(other PolicyStatement) bool {
	return reflect.DeepEqual(s.ToMap(), other.ToMap())
}

func toAnySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// DecodeStatement reads a statement from its stored form. Missing fields are left empty.
func DecodeStatement(v any) (PolicyStatement, error) {
	var s PolicyStatement
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return s, err
	}
	if err := dec.Decode(v); err != nil {
		return s, fmt.Errorf("could not decode policy statement: %w", err)
	}
	return s, nil
}

// PolicyDocument builds a resource policy document holding `statements`.
func PolicyDocument(statements ...PolicyStatement) map[string]any {
	list := make([]any, len(statements))
	for i, s := range statements {
		list[i] = s.ToMap()
	}
	return map[string]any{
		"Version":   PolicyVersion,
		"Statement": list,
	}
}
