package stack

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"go.uber.org/zap"
)

// App is the root of a composition. It owns the single resource graph shared by all of its units and the
// graph of explicit dependencies between units.
type App struct {
	Name      string
	Resources construct.Graph

	units  graph.Graph[string, *Unit]
	order  []string
	root   *Unit
	assets map[string]Asset
	log    *zap.Logger
}

// Asset is a local directory or file which must be published before the app can be deployed. It is identified
// by the hash of its content.
type Asset struct {
	Hash      string
	Path      string
	Packaging string
}

const (
	PackagingZip  = "zip"
	PackagingFile = "file"
)

var unitNamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]*$`)

func unitHash(u *Unit) string {
	return u.Name
}

// NewApp creates an app whose root unit is named `name`.
func NewApp(ctx context.Context, name string) (*App, error) {
	if !unitNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid app name %q (must match %s)", name, unitNamePattern)
	}
	app := &App{
		Name:      name,
		Resources: construct.NewAcyclicGraph(),
		units:     graph.New(unitHash, graph.Directed(), graph.Acyclic(), graph.PreventCycles()),
		assets:    make(map[string]Asset),
		log:       logging.GetLogger(ctx).Named("stack"),
	}
	root := &Unit{Name: name, app: app}
	if err := app.addUnit(root); err != nil {
		return nil, err
	}
	app.root = root
	return app, nil
}

func (a *App) addUnit(u *Unit) error {
	if err := a.units.AddVertex(u); err != nil {
		if errors.Is(err, graph.ErrVertexAlreadyExists) {
			return fmt.Errorf("unit %q already exists", u.Name)
		}
		return err
	}
	a.order = append(a.order, u.Name)
	return nil
}

// Root returns the unit which contains all nested units.
func (a *App) Root() *Unit {
	return a.root
}

// NewUnit creates a nested unit. Nested units are independently deployable slices of the app, each
// synthesized to its own template.
func (a *App) NewUnit(name, description string) (*Unit, error) {
	if !unitNamePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid unit name %q (must match %s)", name, unitNamePattern)
	}
	u := &Unit{Name: name, Description: description, app: a, nested: true}
	if err := a.addUnit(u); err != nil {
		return nil, err
	}
	a.log.Debug("Created unit", logging.UnitField(name))
	return u, nil
}

func (a *App) Unit(name string) (*Unit, error) {
	u, err := a.units.Vertex(name)
	if err != nil {
		return nil, fmt.Errorf("unit %q: %w", name, err)
	}
	return u, nil
}

// Units returns all units in the order they were created, root first.
func (a *App) Units() []*Unit {
	units := make([]*Unit, 0, len(a.order))
	for _, name := range a.order {
		u, err := a.units.Vertex(name)
		if err != nil {
			// order and units are only ever appended together
			panic(fmt.Errorf("unit %q missing from graph: %w", name, err))
		}
		units = append(units, u)
	}
	return units
}

// NestedUnits is [App.Units] without the root.
func (a *App) NestedUnits() []*Unit {
	return a.Units()[1:]
}

// Resource looks up a resource anywhere in the app.
func (a *App) Resource(id construct.ResourceId) (*construct.Resource, error) {
	return a.Resources.Vertex(id)
}

// AddAsset records an asset to publish. Adding the same content twice is a no-op.
func (a *App) AddAsset(asset Asset) error {
	if existing, ok := a.assets[asset.Hash]; ok {
		if existing.Path != asset.Path || existing.Packaging != asset.Packaging {
			a.log.Debug("Asset already added from another path", zap.String("hash", asset.Hash), logging.PathField(existing.Path))
		}
		return nil
	}
	switch asset.Packaging {
	case PackagingZip, PackagingFile:
	default:
		return fmt.Errorf("asset %s: unsupported packaging %q", asset.Hash, asset.Packaging)
	}
	a.assets[asset.Hash] = asset
	return nil
}

// Assets returns all added assets sorted by hash.
func (a *App) Assets() []Asset {
	hashes := make([]string, 0, len(a.assets))
	for h := range a.assets {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	assets := make([]Asset, len(hashes))
	for i, h := range hashes {
		assets[i] = a.assets[h]
	}
	return assets
}
