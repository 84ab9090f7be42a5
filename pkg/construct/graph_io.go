package construct

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type ioEdge struct {
	Source ResourceId
	Target ResourceId
}

func (e ioEdge) String() string {
	return fmt.Sprintf("%s -> %s", e.Source, e.Target)
}

func (e ioEdge) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *ioEdge) UnmarshalText(data []byte) error {
	s := string(data)

	source, target, found := strings.Cut(s, " -> ")
	if !found {
		target, source, found = strings.Cut(s, " <- ")
		if !found {
			return errors.New("invalid edge format, expected either `source -> target` or `target <- source`")
		}
	}

	srcErr := e.Source.UnmarshalText([]byte(source))
	tgtErr := e.Target.UnmarshalText([]byte(target))
	return errors.Join(srcErr, tgtErr)
}

type yamlResource struct {
	Imported   bool           `yaml:"imported,omitempty"`
	Properties map[string]any `yaml:"properties,omitempty"`
}

// GraphToYAML renders the graph `g` as YAML to `w`. Resources are written in topological order and edges
// are sorted, so the same graph always produces the same bytes.
func GraphToYAML(g Graph, w io.Writer) error {
	topo, err := TopologicalSort(g)
	if err != nil {
		return err
	}
	adj, err := g.AdjacencyMap()
	if err != nil {
		return err
	}

	resources := &yaml.Node{Kind: yaml.MappingNode}
	var errs error
	for _, rid := range topo {
		r, err := g.Vertex(rid)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		value := &yaml.Node{}
		err = value.Encode(yamlResource{Imported: r.Imported, Properties: r.Properties})
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("could not encode %s: %w", rid, err))
			continue
		}
		resources.Content = append(resources.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: rid.String()},
			value,
		)
	}
	if errs != nil {
		return errs
	}

	var edges []string
	for _, source := range topo {
		for _, target := range sortedKeys(adj[source]) {
			edges = append(edges, ioEdge{Source: source, Target: target}.String())
		}
	}
	sort.Strings(edges)

	doc := struct {
		Resources *yaml.Node `yaml:"resources"`
		Edges     []string   `yaml:"edges"`
	}{
		Resources: resources,
		Edges:     edges,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// AddFromYAML reads a graph written by [GraphToYAML] into `g`. Intrinsic values are read back in their
// generic (map) form.
func AddFromYAML(g Graph, r io.Reader) error {
	var y struct {
		Resources map[ResourceId]yamlResource `yaml:"resources"`
		Edges     []ioEdge                    `yaml:"edges"`
	}
	if err := yaml.NewDecoder(r).Decode(&y); err != nil {
		return err
	}

	var errs error
	for rid, res := range y.Resources {
		props := Properties(res.Properties)
		if props == nil {
			props = make(Properties)
		}
		err := g.AddVertex(&Resource{
			ID:         rid,
			Properties: props,
			Imported:   res.Imported,
		})
		errs = errors.Join(errs, err)
	}
	for _, e := range y.Edges {
		err := g.AddEdge(e.Source, e.Target)
		errs = errors.Join(errs, err)
	}
	return errs
}
