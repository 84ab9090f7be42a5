package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/klothoplatform/spa-stack/pkg/ioutil"
)

var (
	createColor = color.New(color.FgGreen)
	updateColor = color.New(color.FgYellow)
	deleteColor = color.New(color.FgRed)
)

func (t ChangeType) symbol() string {
	switch t {
	case Create:
		return "+"
	case Delete:
		return "-"
	default:
		return "~"
	}
}

func (t ChangeType) color() *color.Color {
	switch t {
	case Create:
		return createColor
	case Delete:
		return deleteColor
	default:
		return updateColor
	}
}

// WriteTo prints a human readable summary of the result, one line per resource or edge change.
func (r Result) WriteTo(w io.Writer) (count int64, err error) {
	wh := ioutil.NewWriteToHelper(w, &count, &err)
	if r.IsEmpty() {
		wh.Write("No changes\n")
		return
	}
	for _, rc := range r.Resources {
		c := rc.Type.color()
		wh.Write(c.Sprintf("%s %s\n", rc.Type.symbol(), rc.ID))
		for _, pc := range rc.Properties {
			path := strings.Join(pc.Path, ".")
			switch ChangeType(pc.Type) {
			case Create:
				wh.Writef("    %s: %v\n", path, formatValue(pc.To))
			case Delete:
				wh.Writef("    %s: %v\n", path, deleteColor.Sprint("removed"))
			default:
				wh.Writef("    %s: %v -> %v\n", path, formatValue(pc.From), formatValue(pc.To))
			}
		}
	}
	for _, ec := range r.Edges {
		wh.Write(ec.Type.color().Sprintf("%s %s -> %s\n", ec.Type.symbol(), ec.Source, ec.Target))
	}
	creates, updates, deletes := r.counts()
	wh.Writef("\n%d to create, %d to update, %d to delete\n", creates, updates, deletes)
	return
}

func (r Result) counts() (creates, updates, deletes int) {
	for _, rc := range r.Resources {
		switch rc.Type {
		case Create:
			creates++
		case Update:
			updates++
		case Delete:
			deletes++
		}
	}
	return
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}
