package construct

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
)

// Values that are only known once the graph is deployed. Synthesis renders each of these into the
// equivalent template intrinsic.
type (
	// Ref is the primary identifier of a resource (its name, id, or ARN depending on the type).
	Ref struct {
		Resource ResourceId
	}

	// PropertyRef is a named attribute of a resource.
	PropertyRef struct {
		Resource ResourceId
		Property string
	}

	Join struct {
		Delimiter string
		Values    []any
	}

	Select struct {
		Index int
		List  any
	}

	Split struct {
		Delimiter string
		Source    any
	}

	// Sub substitutes `${...}` variables (pseudo parameters) into a string at deploy time.
	Sub string

	// ImportValue is the value of an export made by a stack outside of the app.
	ImportValue struct {
		Name any
	}

	// Pseudo is a value provided by the provisioning engine, such as `AWS::StackId` or `AWS::Region`.
	Pseudo string
)

const (
	PseudoStackId   Pseudo = "AWS::StackId"
	PseudoRegion    Pseudo = "AWS::Region"
	PseudoAccountId Pseudo = "AWS::AccountId"
	PseudoURLSuffix Pseudo = "AWS::URLSuffix"
)

func (v Ref) String() string {
	return v.Resource.String()
}

func (v Ref) MarshalYAML() (any, error) {
	return map[string]any{"Ref": v.Resource.String()}, nil
}

func (v PropertyRef) String() string {
	return v.Resource.String() + "#" + v.Property
}

func (v PropertyRef) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *PropertyRef) UnmarshalText(b []byte) error {
	parts := bytes.SplitN(b, []byte("#"), 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid PropertyRef format: %s", string(b))
	}
	err := v.Resource.UnmarshalText(parts[0])
	if err != nil {
		return err
	}
	v.Property = string(parts[1])
	return nil
}

func (v PropertyRef) MarshalYAML() (any, error) {
	return map[string]any{"GetAtt": v.String()}, nil
}

func (v Join) MarshalYAML() (any, error) {
	return map[string]any{"Join": []any{v.Delimiter, v.Values}}, nil
}

func (v Select) MarshalYAML() (any, error) {
	return map[string]any{"Select": []any{v.Index, v.List}}, nil
}

func (v Split) MarshalYAML() (any, error) {
	return map[string]any{"Split": []any{v.Delimiter, v.Source}}, nil
}

func (v Sub) MarshalYAML() (any, error) {
	return map[string]any{"Sub": string(v)}, nil
}

func (v ImportValue) MarshalYAML() (any, error) {
	return map[string]any{"ImportValue": v.Name}, nil
}

func (v Pseudo) MarshalYAML() (any, error) {
	return map[string]any{"Ref": string(v)}, nil
}

// References walks `v` and returns every resource referred to by a [Ref], [PropertyRef], or bare
// [ResourceId] found in it. The result is sorted and free of duplicates.
func References(v any) []ResourceId {
	seen := make(map[ResourceId]struct{})
	collectReferences(reflect.ValueOf(v), seen)

	ids := make([]ResourceId, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Sort(sortedIds(ids))
	return ids
}

func collectReferences(v reflect.Value, seen map[ResourceId]struct{}) {
	if !v.IsValid() {
		return
	}
	switch val := v.Interface().(type) {
	case ResourceId:
		if !val.IsZero() {
			seen[val] = struct{}{}
		}
		return
	case Ref:
		seen[val.Resource] = struct{}{}
		return
	case PropertyRef:
		seen[val.Resource] = struct{}{}
		return
	case Join:
		collectReferences(reflect.ValueOf(val.Values), seen)
		return
	case Select:
		collectReferences(reflect.ValueOf(val.List), seen)
		return
	case Split:
		collectReferences(reflect.ValueOf(val.Source), seen)
		return
	case ImportValue:
		collectReferences(reflect.ValueOf(val.Name), seen)
		return
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Ptr:
		if !v.IsNil() {
			collectReferences(v.Elem(), seen)
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			collectReferences(iter.Value(), seen)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			collectReferences(v.Index(i), seen)
		}
	}
}
