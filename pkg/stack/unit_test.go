package stack

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dominikbraun/graph"
	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bucketId(name string) construct.ResourceId {
	return construct.ResourceId{Provider: "aws", Type: "s3_bucket", Name: name}
}

func TestUnit_DeclareAndImport(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	app, err := NewApp(context.Background(), "Site")
	require.NoError(err)
	storage, err := app.NewUnit("Storage", "")
	require.NoError(err)
	cdn, err := app.NewUnit("CDN", "")
	require.NoError(err)

	bucket, err := storage.Declare(bucketId("Origin"), nil)
	require.NoError(err)
	assert.Equal("Storage", bucket.ID.Namespace)

	imported, err := cdn.Import(bucketId("ImportedBucket"), construct.Properties{
		"Arn": construct.PropertyRef{Resource: bucket.ID, Property: "Arn"},
	})
	require.NoError(err)
	assert.True(imported.Imported)

	deps, err := construct.DirectDependencies(app.Resources, imported.ID)
	require.NoError(err)
	assert.Equal([]construct.ResourceId{bucket.ID}, deps)

	resources, err := cdn.Resources()
	require.NoError(err)
	assert.Len(resources, 1)

	_, err = storage.Declare(bucketId("Origin"), nil)
	assert.ErrorIs(err, graph.ErrVertexAlreadyExists)

	assert.Equal([]*Unit{app.Root(), storage, cdn}, app.Units())
	assert.Equal([]*Unit{storage, cdn}, app.NestedUnits())
}

func TestUnit_AddDependency(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	app, err := NewApp(context.Background(), "Site")
	require.NoError(err)
	storage, _ := app.NewUnit("Storage", "")
	cert, _ := app.NewUnit("Certificate", "")
	cdn, _ := app.NewUnit("CDN", "")

	require.NoError(cdn.AddDependency(storage))
	require.NoError(cdn.AddDependency(cert))
	require.NoError(cdn.AddDependency(storage), "repeated dependencies are a no-op")

	deps, err := cdn.Dependencies()
	require.NoError(err)
	assert.Equal([]*Unit{cert, storage}, deps)

	assert.Error(storage.AddDependency(cdn), "cycle")
	assert.Error(cdn.AddDependency(app.Root()), "root")

	_, err = app.NewUnit("CDN", "")
	assert.Error(err, "duplicate unit")
	_, err = app.NewUnit("not valid", "")
	assert.Error(err)
}

func TestUnit_AddOutput(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	app, err := NewApp(context.Background(), "Site")
	require.NoError(err)
	bucket, err := app.Root().Declare(bucketId("Origin"), nil)
	require.NoError(err)

	require.NoError(app.Root().AddOutput("BucketArn", "", construct.PropertyRef{Resource: bucket.ID, Property: "Arn"}))
	assert.Error(app.Root().AddOutput("BucketArn", "", "again"))
	assert.Error(app.Root().AddOutput("Missing", "", construct.Ref{Resource: bucketId("Nope")}))
	assert.Len(app.Root().Outputs(), 1)
}

func TestRequire(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "url-mapper.js")
	assert.NoError(os.WriteFile(file, []byte("function handler(event) { return event.request }"), 0644))

	assert.NoError(RequireValue("Root", "domain name", "example.com"))
	assert.ErrorAs(RequireValue("Root", "domain name", ""), &MissingValueError{})

	assert.NoError(RequirePath("CDN", "edge function", file))
	err := RequirePath("CDN", "edge function", filepath.Join(dir, "missing.js"))
	assert.ErrorAs(err, &MissingPathError{})
	assert.ErrorIs(err, os.ErrNotExist)
	assert.ErrorAs(RequirePath("CDN", "edge function", ""), &MissingPathError{})

	assert.ErrorAs(RequireReference("DNS", "distribution", construct.ResourceId{}), &MissingReferenceError{})
	assert.True(IsConfigurationError(RequireReference("DNS", "distribution", construct.ResourceId{})))
	assert.False(IsConfigurationError(os.ErrNotExist))
}

func TestApp_AddAsset(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	app, err := NewApp(context.Background(), "Site")
	require.NoError(err)

	require.NoError(app.AddAsset(Asset{Hash: "bbb", Path: "dist", Packaging: PackagingZip}))
	require.NoError(app.AddAsset(Asset{Hash: "aaa", Path: "404.html", Packaging: PackagingFile}))
	require.NoError(app.AddAsset(Asset{Hash: "bbb", Path: "other", Packaging: PackagingZip}), "same content is a no-op")
	assert.Error(app.AddAsset(Asset{Hash: "ccc", Path: "x", Packaging: "tar"}))

	assert.Equal([]Asset{
		{Hash: "aaa", Path: "404.html", Packaging: PackagingFile},
		{Hash: "bbb", Path: "dist", Packaging: PackagingZip},
	}, app.Assets())
}

func TestRequireValue_Blank(t *testing.T) {
	for _, v := range []string{"", " ", "\t\n"} {
		assert.ErrorAs(t, RequireValue("DNS", "domain name", v), &MissingValueError{}, "%q", v)
	}
	assert.NoError(t, RequireValue("DNS", "domain name", " example.com"))
}
