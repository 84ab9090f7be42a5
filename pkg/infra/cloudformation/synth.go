package cloudformation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/klothoplatform/spa-stack/pkg/construct"
	kio "github.com/klothoplatform/spa-stack/pkg/io"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/provider/aws"
	"github.com/klothoplatform/spa-stack/pkg/set"
	"github.com/klothoplatform/spa-stack/pkg/stack"
	"go.uber.org/zap"
)

type (
	Config struct {
		// Format is [FormatJSON] (the default) or [FormatYAML].
		Format string
		// AssetBucket is where assets and nested templates are published. It may contain `${AWS::...}`
		// variables.
		AssetBucket string
		Account     string
		Region      string
	}

	Plugin struct {
		Config Config
	}

	// Assembly is the output of synthesizing an app: one template per unit plus the manifests describing how to
	// publish and deploy them.
	Assembly struct {
		Root    *Template
		Nested  map[string]*Template
		Assets  AssetManifest
		Files   []kio.File
		AppName string
	}

	synthesis struct {
		app       *stack.App
		templates map[string]*Template
		params    map[string]map[string]crossRef
		// stackDeps holds unit dependencies implied by explicit resource edges across units.
		stackDeps map[string]set.Set[string]
	}
)

func (p Plugin) Name() string {
	return "cloudformation"
}

const (
	ManifestFile = "manifest.json"
	GraphFile    = "graph.yaml"
)

func (p Plugin) TemplateFile(app string) string {
	return app + ".template" + extension(p.Config.Format)
}

func (p Plugin) NestedTemplateFile(app, unit string) string {
	return app + unit + ".nested.template" + extension(p.Config.Format)
}

func (p Plugin) AssetManifestFile(app string) string {
	return app + ".assets.json"
}

// Translate synthesizes `app` into its cloud assembly.
func (p Plugin) Translate(ctx context.Context, app *stack.App) (*Assembly, error) {
	log := logging.GetLogger(ctx).Named("cloudformation")
	if p.Config.AssetBucket == "" {
		return nil, fmt.Errorf("no asset bucket configured")
	}
	if p.Config.Format != "" && p.Config.Format != FormatJSON && p.Config.Format != FormatYAML {
		return nil, fmt.Errorf("unsupported template format %q", p.Config.Format)
	}

	s := &synthesis{
		app:       app,
		templates: make(map[string]*Template),
		params:    make(map[string]map[string]crossRef),
		stackDeps: make(map[string]set.Set[string]),
	}
	for _, u := range app.Units() {
		desc := u.Description
		if desc == "" {
			desc = u.Name
		}
		s.templates[u.Name] = NewTemplate(desc)
		s.params[u.Name] = make(map[string]crossRef)
		s.stackDeps[u.Name] = make(set.Set[string])
	}

	var errs error
	for _, u := range app.Units() {
		errs = errors.Join(errs, s.addResources(u))
	}
	for _, u := range app.Units() {
		errs = errors.Join(errs, s.addOutputs(u))
	}
	if errs != nil {
		return nil, errs
	}

	asm := &Assembly{
		Root:    s.templates[app.Root().Name],
		Nested:  make(map[string]*Template),
		AppName: app.Name,
		Assets:  newAssetManifest(),
	}

	for _, a := range app.Assets() {
		asm.Assets.addAsset(a, p.Config.AssetBucket)
	}

	for _, u := range app.NestedUnits() {
		tmpl := s.templates[u.Name]
		asm.Nested[u.Name] = tmpl
		content, err := Render(tmpl, p.Config.Format)
		if err != nil {
			return nil, fmt.Errorf("could not render template for %s: %w", u.Name, err)
		}
		hash := contentHash(content)
		path := p.NestedTemplateFile(app.Name, u.Name)
		key := hash + extension(p.Config.Format)
		asm.Assets.addTemplate(hash, path, key, p.Config.AssetBucket)
		asm.Files = append(asm.Files, &kio.RawFile{FPath: path, Content: content})

		nested, err := s.nestedStack(u, key, p.Config.AssetBucket)
		if err != nil {
			return nil, err
		}
		asm.Root.Resources[StackLogicalId(u.Name)] = nested
		log.Debug("Synthesized nested template",
			logging.UnitField(u.Name),
			zap.Int("resources", len(tmpl.Resources)),
			zap.Int("parameters", len(tmpl.Parameters)),
			zap.Int("outputs", len(tmpl.Outputs)),
		)
	}

	root, err := Render(asm.Root, p.Config.Format)
	if err != nil {
		return nil, fmt.Errorf("could not render root template: %w", err)
	}
	asm.Files = append(asm.Files, &kio.RawFile{FPath: p.TemplateFile(app.Name), Content: root})

	assets, err := Render(asm.Assets, FormatJSON)
	if err != nil {
		return nil, err
	}
	asm.Files = append(asm.Files, &kio.RawFile{FPath: p.AssetManifestFile(app.Name), Content: assets})

	manifest, err := Render(p.cloudAssemblyManifest(app.Name), FormatJSON)
	if err != nil {
		return nil, err
	}
	asm.Files = append(asm.Files, &kio.RawFile{FPath: ManifestFile, Content: manifest})

	graphFile := getBuffer()
	defer releaseBuffer(graphFile)
	if err := construct.GraphToYAML(app.Resources, graphFile); err != nil {
		return nil, fmt.Errorf("could not render graph: %w", err)
	}
	asm.Files = append(asm.Files, &kio.RawFile{FPath: GraphFile, Content: append([]byte(nil), graphFile.Bytes()...)})

	sort.Slice(asm.Files, func(i, j int) bool { return asm.Files[i].Path() < asm.Files[j].Path() })
	log.Info("Synthesized app", zap.Int("units", len(app.Units())), zap.Int("files", len(asm.Files)))
	return asm, nil
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// addResources renders every resource declared by `u` into its template. Imported resources are only ever
// rendered as values.
func (s *synthesis) addResources(u *stack.Unit) error {
	tmpl := s.templates[u.Name]
	r := resolver{s: s, unit: u.Name}

	adj, err := s.app.Resources.AdjacencyMap()
	if err != nil {
		return err
	}
	resources, err := u.Resources()
	if err != nil {
		return err
	}

	var errs error
	for _, res := range resources {
		if res.Imported {
			continue
		}
		t, err := aws.Lookup(res.ID)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		props, err := r.resolve(res.Properties)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", res.ID, err))
			continue
		}
		tr := &TemplateResource{
			Type:                t.CFNType,
			DeletionPolicy:      t.DeletionPolicy,
			UpdateReplacePolicy: t.DeletionPolicy,
			Metadata:            map[string]any{"spa:id": res.ID.String()},
		}
		if m, ok := props.(map[string]any); ok && len(m) > 0 {
			tr.Properties = m
		}

		implied := make(set.Set[construct.ResourceId])
		implied.Add(res.References()...)
		var dependsOn []string
		for _, dep := range sortedDeps(adj[res.ID]) {
			if implied.Contains(dep) {
				continue
			}
			target, err := s.app.Resource(dep)
			if err != nil {
				errs = errors.Join(errs, err)
				continue
			}
			switch {
			case target.Imported:
			case dep.Namespace == u.Name:
				dependsOn = append(dependsOn, LogicalId(dep))
			default:
				s.stackDeps[u.Name].Add(dep.Namespace)
			}
		}
		tr.DependsOn = dependsOn
		tmpl.Resources[LogicalId(res.ID)] = tr
	}
	return errs
}

func sortedDeps(m map[construct.ResourceId]construct.Edge) []construct.ResourceId {
	ids := make([]construct.ResourceId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return construct.ResourceIdLess(ids[i], ids[j]) })
	return ids
}

func (s *synthesis) addOutputs(u *stack.Unit) error {
	tmpl := s.templates[u.Name]
	r := resolver{s: s, unit: u.Name}
	var errs error
	for _, o := range u.Outputs() {
		v, err := r.resolve(o.Value)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("output %s of %s: %w", o.Name, u.Name, err))
			continue
		}
		if _, exists := tmpl.Outputs[o.Name]; exists {
			errs = errors.Join(errs, fmt.Errorf("output %s of %s conflicts with a cross-unit output", o.Name, u.Name))
			continue
		}
		tmpl.Outputs[o.Name] = Output{Description: o.Description, Value: v}
	}
	return errs
}

// crossReference wires `c` from its owning unit into `consumer`. Nested units receive it as a parameter, which
// the root fills in from the owner's output; the root reads the owner's output directly.
func (s *synthesis) crossReference(consumer string, c crossRef) (any, error) {
	producer := c.Resource.Namespace
	if _, ok := s.templates[producer]; !ok {
		return nil, fmt.Errorf("%s is not owned by a unit of the app", c.Resource)
	}
	name := crossRefName(c.Resource, c.Property)
	root := s.app.Root().Name

	if producer != root {
		value, err := local(c.Resource, c.Property)
		if err != nil {
			return nil, err
		}
		s.templates[producer].Outputs[name] = Output{Value: value}
	}
	if consumer == root {
		return getAtt(StackLogicalId(producer), "Outputs."+name), nil
	}
	s.templates[consumer].Parameters[name] = Parameter{
		Type:        "String",
		Description: fmt.Sprintf("%s of %s", propertyOrRef(c.Property), c.Resource),
	}
	s.params[consumer][name] = c
	return ref(name), nil
}

func propertyOrRef(property string) string {
	if property == "" {
		return "Ref"
	}
	return property
}

// nestedStack builds the root template resource for nested unit `u`, whose template is published under `key`.
func (s *synthesis) nestedStack(u *stack.Unit, key, assetBucket string) (*TemplateResource, error) {
	rootResolver := resolver{s: s, unit: s.app.Root().Name}
	templateURL, err := rootResolver.resolve(construct.Join{Values: []any{
		"https://s3.",
		construct.PseudoRegion,
		".",
		construct.PseudoURLSuffix,
		"/",
		construct.Sub(assetBucket),
		"/" + key,
	}})
	if err != nil {
		return nil, err
	}

	params := make(map[string]any, len(s.params[u.Name]))
	for _, name := range sortedMapKeys(s.params[u.Name]) {
		c := s.params[u.Name][name]
		v, err := rootResolver.reference(c.Resource, c.Property)
		if err != nil {
			return nil, fmt.Errorf("parameter %s of %s: %w", name, u.Name, err)
		}
		params[name] = v
	}

	deps, err := u.Dependencies()
	if err != nil {
		return nil, err
	}
	dependsOn := make(set.Set[string])
	for _, d := range deps {
		dependsOn.Add(StackLogicalId(d.Name))
	}
	for unit := range s.stackDeps[u.Name] {
		if unit == s.app.Root().Name {
			continue
		}
		dependsOn.Add(StackLogicalId(unit))
	}

	props := map[string]any{"TemplateURL": templateURL}
	if len(params) > 0 {
		props["Parameters"] = params
	}
	return &TemplateResource{
		Type:       "AWS::CloudFormation::Stack",
		Properties: props,
		DependsOn:  dependsOn.Sorted(func(a, b string) bool { return a < b }),
		Metadata:   map[string]any{"spa:unit": u.Name},
	}, nil
}
