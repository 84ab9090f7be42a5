package stack

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/suffix"
	"go.uber.org/zap"
)

// Unit is a self-contained slice of the app. Every resource declared or imported through a unit is namespaced
// by the unit's name.
type Unit struct {
	Name        string
	Description string

	app     *App
	nested  bool
	outputs []Output
}

type Output struct {
	Name        string
	Description string
	Value       any
}

func (u *Unit) App() *App {
	return u.app
}

func (u *Unit) IsNested() bool {
	return u.nested
}

func (u *Unit) String() string {
	return u.Name
}

func (u *Unit) namespaced(id construct.ResourceId) construct.ResourceId {
	id.Namespace = u.Name
	return id
}

// Declare adds a resource owned by this unit. Any resources referenced by `props` must already exist (in this or
// another unit) and become dependencies of the new resource.
func (u *Unit) Declare(id construct.ResourceId, props construct.Properties) (*construct.Resource, error) {
	r := &construct.Resource{ID: u.namespaced(id), Properties: props}
	if r.Properties == nil {
		r.Properties = make(construct.Properties)
	}
	if err := construct.AddResource(u.app.Resources, r); err != nil {
		return nil, fmt.Errorf("%s: %w", u.Name, err)
	}
	u.app.log.Debug("Declared resource", logging.UnitField(u.Name), logging.ResourceField(r.ID))
	return r, nil
}

// Import adds a reference to a resource owned elsewhere. `props` holds whatever is known about the resource
// (its ARN, name, id) and is used wherever the resource is referenced.
func (u *Unit) Import(id construct.ResourceId, props construct.Properties) (*construct.Resource, error) {
	r := construct.ImportResource(u.namespaced(id), props)
	if err := construct.AddResource(u.app.Resources, r); err != nil {
		return nil, fmt.Errorf("%s: %w", u.Name, err)
	}
	u.app.log.Debug("Imported resource", logging.UnitField(u.Name), logging.ResourceField(r.ID))
	return r, nil
}

// AddResourceDependency adds an explicit ordering between two resources for when no property reference exists to
// infer it.
func (u *Unit) AddResourceDependency(dependent, dependency construct.ResourceId) error {
	return construct.AddDependency(u.app.Resources, dependent, dependency)
}

// AddDependency declares that this unit must be provisioned after `other`.
func (u *Unit) AddDependency(other *Unit) error {
	switch {
	case other == nil:
		return fmt.Errorf("%s: cannot depend on a nil unit", u.Name)
	case other.app != u.app:
		return fmt.Errorf("%s: cannot depend on unit %s from another app", u.Name, other.Name)
	case !u.nested || !other.nested:
		return fmt.Errorf("%s: dependencies are only supported between nested units (got %s)", u.Name, other.Name)
	}
	err := u.app.units.AddEdge(u.Name, other.Name)
	switch {
	case errors.Is(err, graph.ErrEdgeAlreadyExists):
		return nil
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		return fmt.Errorf("%s: depending on %s would create a cycle: %w", u.Name, other.Name, err)
	case err != nil:
		return err
	}
	u.app.log.Debug("Added unit dependency", logging.UnitField(u.Name), zap.String("dependency", other.Name))
	return nil
}

// Dependencies returns the units this unit explicitly depends on, sorted by name.
func (u *Unit) Dependencies() ([]*Unit, error) {
	adj, err := u.app.units.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(adj[u.Name]))
	for name := range adj[u.Name] {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make([]*Unit, len(names))
	for i, name := range names {
		deps[i], err = u.app.units.Vertex(name)
		if err != nil {
			return nil, err
		}
	}
	return deps, nil
}

// AddOutput exports a value from the unit. The value may reference resources from any unit.
func (u *Unit) AddOutput(name, description string, value any) error {
	for _, o := range u.outputs {
		if o.Name == name {
			return fmt.Errorf("%s: output %q already exists", u.Name, name)
		}
	}
	var errs error
	for _, ref := range construct.References(value) {
		if _, err := u.app.Resources.Vertex(ref); err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: output %q references %s: %w", u.Name, name, ref, err))
		}
	}
	if errs != nil {
		return errs
	}
	u.outputs = append(u.outputs, Output{Name: name, Description: description, Value: value})
	return nil
}

func (u *Unit) Outputs() []Output {
	return append([]Output(nil), u.outputs...)
}

// Resources returns every resource declared or imported by this unit, sorted by id.
func (u *Unit) Resources() ([]*construct.Resource, error) {
	return construct.ResourcesOf(u.app.Resources, construct.ResourceId{Namespace: u.Name})
}

// Suffix is a deploy-time token derived from the unit's stack id, unique per deployment of the unit. It is used
// to disambiguate physical names that must be unique within an account.
func (u *Unit) Suffix() any {
	return suffix.Expr(construct.PseudoStackId)
}
