package cloudformation

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
	"github.com/klothoplatform/spa-stack/pkg/construct"
)

// alphanumeric drops every character CloudFormation doesn't allow in logical ids.
func alphanumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if r <= unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
}

func hashSuffix(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "/")))
	return strings.ToUpper(hex.EncodeToString(sum[:4]))
}

// LogicalId is the PascalCase name of the resource followed by a hash of its unit and name. The hash keeps ids
// unique when names only differ by characters that are dropped.
func LogicalId(id construct.ResourceId) string {
	return alphanumeric(strcase.ToCamel(id.Name)) + hashSuffix(id.Namespace, id.Name)
}

// StackLogicalId is the id of the nested stack resource for `unit` in the root template.
func StackLogicalId(unit string) string {
	return alphanumeric(strcase.ToCamel(unit)) + "NestedStack" + hashSuffix("stack", unit)
}

// crossRefName names the output (in the producing unit) and parameter (in the consuming unit) carrying the value
// of `property` of `id`. An empty property means the resource's `Ref`.
func crossRefName(id construct.ResourceId, property string) string {
	if property == "" {
		property = "Ref"
	}
	return LogicalId(id) + alphanumeric(strcase.ToCamel(property))
}
