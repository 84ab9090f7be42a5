package cloudformation

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/provider/aws"
)

type (
	// crossRef is a value one unit reads from a resource owned by another.
	crossRef struct {
		Resource construct.ResourceId
		Property string
	}

	// resolver renders property values for the template of a single unit.
	resolver struct {
		s    *synthesis
		unit string
	}
)

func ref(logicalId string) map[string]any {
	return map[string]any{"Ref": logicalId}
}

func getAtt(logicalId, attribute string) map[string]any {
	return map[string]any{"Fn::GetAtt": []any{logicalId, attribute}}
}

func (r resolver) resolve(v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case construct.ResourceId:
		return r.reference(val, "")
	case construct.Ref:
		return r.reference(val.Resource, "")
	case construct.PropertyRef:
		return r.reference(val.Resource, val.Property)
	case construct.Pseudo:
		return ref(string(val)), nil
	case construct.Sub:
		return map[string]any{"Fn::Sub": string(val)}, nil
	case construct.ImportValue:
		name, err := r.resolve(val.Name)
		if err != nil {
			return nil, err
		}
		return map[string]any{"Fn::ImportValue": name}, nil
	case construct.Join:
		values, err := r.resolve(val.Values)
		if err != nil {
			return nil, err
		}
		return map[string]any{"Fn::Join": []any{val.Delimiter, values}}, nil
	case construct.Select:
		list, err := r.resolve(val.List)
		if err != nil {
			return nil, err
		}
		return map[string]any{"Fn::Select": []any{val.Index, list}}, nil
	case construct.Split:
		source, err := r.resolve(val.Source)
		if err != nil {
			return nil, err
		}
		return map[string]any{"Fn::Split": []any{val.Delimiter, source}}, nil
	case construct.Properties:
		return r.resolve(map[string]any(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for _, k := range sortedMapKeys(val) {
			rv, err := r.resolve(val[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			rv, err := r.resolve(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = rv
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		list := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			list[i] = rv.Index(i).Interface()
		}
		return r.resolve(list)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("unsupported map key type %s", rv.Type().Key())
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return r.resolve(m)
	case reflect.Struct, reflect.Func, reflect.Chan:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
	return v, nil
}

// reference renders a `Ref` (empty property) or attribute of `id` as seen from the resolver's unit.
func (r resolver) reference(id construct.ResourceId, property string) (any, error) {
	res, err := r.s.app.Resource(id)
	if err != nil {
		return nil, fmt.Errorf("reference to %s: %w", id, err)
	}
	if res.Imported {
		v, err := aws.ImportedValue(res, property)
		if err != nil {
			return nil, err
		}
		return r.resolve(v)
	}
	if id.Namespace == r.unit {
		return local(id, property)
	}
	return r.s.crossReference(r.unit, crossRef{Resource: id, Property: property})
}

// local renders a reference to a resource declared in the same template.
func local(id construct.ResourceId, property string) (any, error) {
	t, err := aws.Lookup(id)
	if err != nil {
		return nil, err
	}
	if property == "" {
		return ref(LogicalId(id)), nil
	}
	if !t.HasAttribute(property) {
		return nil, fmt.Errorf("%s (%s) has no attribute %q", id, t.CFNType, property)
	}
	return getAtt(LogicalId(id), property), nil
}

func sortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
