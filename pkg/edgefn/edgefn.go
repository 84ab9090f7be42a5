package edgefn

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"github.com/klothoplatform/spa-stack/pkg/logging"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.uber.org/zap"
)

//go:generate mockgen -source=./edgefn.go --destination=../spa/edgefn_mock_test.go --package=spa

// MaxCodeSize is the largest function CloudFront accepts, in bytes.
const MaxCodeSize = 10 * 1024

// HandlerName is the function CloudFront invokes for each viewer request.
const HandlerName = "handler"

//go:embed url-mapper.js
var DefaultUrlMapper []byte

type (
	// Function is the validated source of a viewer-request function.
	Function struct {
		Path string
		Code string
	}

	Loader interface {
		Load(ctx context.Context, path string) (*Function, error)
	}

	// FileLoader reads functions from the local filesystem.
	FileLoader struct{}

	// InvalidFunctionError is returned for sources that could never run as a CloudFront function.
	InvalidFunctionError struct {
		Path   string
		Reason string
	}
)

func (e InvalidFunctionError) Error() string {
	return fmt.Sprintf("invalid edge function %s: %s", e.Path, e.Reason)
}

var language = javascript.GetLanguage()

func newParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(language)
	return parser
}

func (FileLoader) Load(ctx context.Context, path string) (*Function, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read edge function: %w", err)
	}
	if err := Validate(ctx, path, content); err != nil {
		return nil, err
	}
	logging.GetLogger(ctx).Debug("Loaded edge function", logging.PathField(path), zap.Int("size", len(content)))
	return &Function{Path: path, Code: string(content)}, nil
}

// Validate parses `content` as JavaScript and checks that it declares a top-level [HandlerName] function and fits
// within [MaxCodeSize].
func Validate(ctx context.Context, path string, content []byte) error {
	switch {
	case len(content) == 0:
		return InvalidFunctionError{Path: path, Reason: "file is empty"}
	case len(content) > MaxCodeSize:
		return InvalidFunctionError{
			Path:   path,
			Reason: fmt.Sprintf("%d bytes exceeds the maximum of %d", len(content), MaxCodeSize),
		}
	}

	tree, err := newParser().ParseCtx(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("could not parse edge function %s: %w", path, err)
	}
	root := tree.RootNode()
	if root.HasError() {
		return InvalidFunctionError{Path: path, Reason: "syntax error"}
	}

	for _, name := range topLevelFunctions(root, content) {
		if name == HandlerName {
			return nil
		}
	}
	return InvalidFunctionError{Path: path, Reason: fmt.Sprintf("no top-level function named %q", HandlerName)}
}

const topLevelFunctionQuery = `(program (function_declaration name: (identifier) @name))`

func topLevelFunctions(root *sitter.Node, content []byte) []string {
	q, err := sitter.NewQuery([]byte(topLevelFunctionQuery), language)
	if err != nil {
		// the query is a constant
		panic(fmt.Errorf("could not construct query %s: %w", topLevelFunctionQuery, err))
	}
	cursor := sitter.NewQueryCursor()
	cursor.Exec(q, root)

	var names []string
	for {
		match, found := cursor.NextMatch()
		if !found || match == nil {
			break
		}
		for _, capture := range match.Captures {
			if q.CaptureNameForId(capture.Index) != "name" {
				continue
			}
			names = append(names, string(content[capture.Node.StartByte():capture.Node.EndByte()]))
		}
	}
	return names
}
