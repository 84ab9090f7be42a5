// Package suffix derives a short token from a stack id that is unique per deployment.
//
// Stack ids have the form
//
//	arn:aws:cloudformation:us-east-1:123456789012:stack/MyStack/5b0f7b30-6d3c-11ee-a7e1-0e8f4b3c2d11
//
// and the token is the last group of the trailing UUID (`0e8f4b3c2d11`).
package suffix

import (
	"strings"

	"github.com/klothoplatform/spa-stack/pkg/construct"
)

const (
	pathSegment = 2
	uuidGroup   = 4
)

// FromStackId returns the suffix of a concrete stack id, or "" if the id does not have the expected shape.
func FromStackId(stackId string) string {
	segments := strings.Split(stackId, "/")
	if len(segments) <= pathSegment {
		return ""
	}
	groups := strings.Split(segments[pathSegment], "-")
	if len(groups) <= uuidGroup {
		return ""
	}
	return groups[uuidGroup]
}

// Expr returns the same selection as [FromStackId] expressed over a value only known at deploy time, typically
// [construct.PseudoStackId].
func Expr(stackId any) any {
	return construct.Select{
		Index: uuidGroup,
		List: construct.Split{
			Delimiter: "-",
			Source: construct.Select{
				Index: pathSegment,
				List:  construct.Split{Delimiter: "/", Source: stackId},
			},
		},
	}
}
