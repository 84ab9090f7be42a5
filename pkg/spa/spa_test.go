package spa

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klothoplatform/spa-stack/pkg/assets"
	"github.com/klothoplatform/spa-stack/pkg/config"
	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/edgefn"
	"github.com/klothoplatform/spa-stack/pkg/provider/aws"
	"github.com/klothoplatform/spa-stack/pkg/stack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testCertificateArn = "arn:aws:acm:us-east-1:123456789012:certificate/abc"

type siteFiles struct {
	assets   string
	function string
}

func newSiteFiles(t *testing.T) siteFiles {
	t.Helper()
	dir := t.TempDir()
	files := siteFiles{
		assets:   filepath.Join(dir, "dist"),
		function: filepath.Join(dir, "url-mapper.js"),
	}
	require.NoError(t, os.MkdirAll(files.assets, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(files.assets, "index.html"), []byte("<html></html>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(files.assets, "404.html"), []byte("not found"), 0644))
	require.NoError(t, os.WriteFile(files.function, edgefn.DefaultUrlMapper, 0644))
	return files
}

func exampleConfig(files siteFiles) config.Config {
	cfg := config.Default()
	cfg.AppName = "Site"
	cfg.DomainName = "example.com"
	cfg.HostedZoneId = "Z123"
	cfg.CertificateArn = testCertificateArn
	cfg.AssetsPath = files.assets
	cfg.EdgeFunctionPath = files.function
	return cfg
}

func resourceCount(t *testing.T, app *stack.App) int {
	t.Helper()
	n, err := app.Resources.Order()
	require.NoError(t, err)
	return n
}

func ofType(t *testing.T, app *stack.App, typ string) []*construct.Resource {
	t.Helper()
	rs, err := construct.ResourcesOf(app.Resources, construct.ResourceId{Provider: aws.Provider, Type: typ})
	require.NoError(t, err)
	return rs
}

func property(t *testing.T, r *construct.Resource, path string) any {
	t.Helper()
	v, err := r.GetProperty(path)
	require.NoError(t, err)
	return v
}

func TestNewRoot_ExampleCom(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	files := newSiteFiles(t)
	ctrl := gomock.NewController(t)

	stager := NewMockStager(ctrl)
	stager.EXPECT().
		Stage(gomock.Any(), files.assets, gomock.Nil()).
		Return(&assets.Asset{Dir: files.assets, Hash: "abc123", Files: []string{"404.html", "index.html"}}, nil).
		Times(1)
	loader := NewMockLoader(ctrl)
	loader.EXPECT().
		Load(gomock.Any(), files.function).
		Return(&edgefn.Function{Path: files.function, Code: string(edgefn.DefaultUrlMapper)}, nil).
		Times(1)

	root, err := NewRoot(context.Background(), exampleConfig(files), RootProps{Stager: stager, Loader: loader})
	require.NoError(err)
	app := root.App

	assert.Len(ofType(t, app, aws.BucketType), 2, "the origin bucket and its import into the CDN unit")
	assert.Len(ofType(t, app, aws.CertificateType), 1)
	assert.Len(ofType(t, app, aws.CloudfrontDistributionType), 1)
	assert.Len(ofType(t, app, aws.BucketDeploymentType), 1)

	records := ofType(t, app, aws.RecordSetType)
	require.Len(records, 2)
	names := []any{property(t, records[0], "Name"), property(t, records[1], "Name")}
	assert.ElementsMatch([]any{"example.com", "www.example.com"}, names)
	for _, r := range records {
		assert.Equal("A", property(t, r, "Type"))
		assert.Equal(construct.PropertyRef{Resource: root.CDN.Distribution, Property: "DomainName"}, property(t, r, "AliasTarget.DNSName"))
	}

	dist, err := app.Resource(root.CDN.Distribution)
	require.NoError(err)
	assert.Equal([]any{"example.com", "www.example.com"}, property(t, dist, "DistributionConfig.Aliases"))
	assert.Equal(construct.Ref{Resource: root.Certificate.Certificate}, property(t, dist, "DistributionConfig.ViewerCertificate.AcmCertificateArn"))
	assert.Equal(403, property(t, dist, "DistributionConfig.CustomErrorResponses[0].ErrorCode"))
	assert.Equal(200, property(t, dist, "DistributionConfig.CustomErrorResponses[0].ResponseCode"))
	assert.Equal("/404.html", property(t, dist, "DistributionConfig.CustomErrorResponses[0].ResponsePagePath"))
	assert.Equal(1800, property(t, dist, "DistributionConfig.CustomErrorResponses[0].ErrorCachingMinTTL"))

	policies := ofType(t, app, aws.BucketPolicyType)
	require.Len(policies, 1)
	assert.Equal(aws.GrantCreated, root.CDN.Grant.Outcome)
	assert.Len(property(t, policies[0], "PolicyDocument.Statement"), 1)

	deployment, err := app.Resource(root.Storage.Deployment)
	require.NoError(err)
	assert.Equal([]any{"abc123.zip"}, property(t, deployment, "SourceObjectKeys"))
	assert.Equal([]stack.Asset{{Hash: "abc123", Path: files.assets, Packaging: stack.PackagingZip}}, app.Assets())

	cdnDeps, err := root.CDN.Unit.Dependencies()
	require.NoError(err)
	assert.Equal([]*stack.Unit{root.Certificate.Unit, root.Storage.Unit}, cdnDeps)
	dnsDeps, err := root.DNS.Unit.Dependencies()
	require.NoError(err)
	assert.Equal([]*stack.Unit{root.CDN.Unit}, dnsDeps)

	outputs := app.Root().Outputs()
	require.Len(outputs, 1)
	assert.Equal(DistributionURLOutput, outputs[0].Name)
	assert.Equal(aws.DistributionURL(root.CDN.Distribution), outputs[0].Value)
}

func TestNewRoot_Deterministic(t *testing.T) {
	files := newSiteFiles(t)
	cfg := exampleConfig(files)

	compose := func() string {
		root, err := NewRoot(context.Background(), cfg, RootProps{})
		require.NoError(t, err)
		buf := new(bytes.Buffer)
		require.NoError(t, construct.GraphToYAML(root.App.Resources, buf))
		assert.Len(t, ofType(t, root.App, aws.BucketPolicyType), 1)
		return buf.String()
	}
	assert.Equal(t, compose(), compose())
}

func TestNewRoot_OriginAccessControl(t *testing.T) {
	assert, require := assert.New(t), require.New(t)
	files := newSiteFiles(t)
	cfg := exampleConfig(files)
	cfg.OriginAccess = config.OriginAccessControl
	cfg.IPv6 = true
	cfg.Subdomain = "docs"

	root, err := NewRoot(context.Background(), cfg, RootProps{})
	require.NoError(err)

	assert.Empty(ofType(t, root.App, aws.OriginAccessIdentityType))
	assert.Len(ofType(t, root.App, aws.OriginAccessControlType), 1)
	assert.Len(ofType(t, root.App, aws.RecordSetType), 4)

	policies := ofType(t, root.App, aws.BucketPolicyType)
	require.Len(policies, 1)
	assert.Equal("cloudfront.amazonaws.com", property(t, policies[0], "PolicyDocument.Statement[0].Principal.Service"))

	dist, err := root.App.Resource(root.CDN.Distribution)
	require.NoError(err)
	assert.Equal([]any{"docs.example.com", "www.docs.example.com"}, property(t, dist, "DistributionConfig.Aliases"))

	zone, err := root.App.Resource(root.DNS.HostedZone)
	require.NoError(err)
	assert.Equal("example.com", property(t, zone, "Name"))
	records := ofType(t, root.App, aws.RecordSetType)
	require.NotEmpty(records)
	assert.Equal("docs.example.com", property(t, records[0], "Name"))
	assert.Equal(
		construct.PropertyRef{Resource: root.CDN.AccessPrincipal, Property: "Id"},
		property(t, dist, "DistributionConfig.Origins[0].OriginAccessControlId"),
	)
}

func TestNewRoot_InvalidConfig(t *testing.T) {
	files := newSiteFiles(t)
	ctrl := gomock.NewController(t)
	stager := NewMockStager(ctrl)
	loader := NewMockLoader(ctrl)

	cfg := exampleConfig(files)
	cfg.DomainName = ""
	_, err := NewRoot(context.Background(), cfg, RootProps{Stager: stager, Loader: loader})
	assert.ErrorContains(t, err, "domain_name")

	cfg = exampleConfig(files)
	cfg.EdgeFunctionPath = filepath.Join(filepath.Dir(files.function), "missing.js")
	_, err = NewRoot(context.Background(), cfg, RootProps{Stager: stager, Loader: loader})
	assert.ErrorAs(t, err, &stack.MissingPathError{})
	assert.True(t, stack.IsConfigurationError(err))
}

// unitFixture is an app with storage and certificate units in place, for composing the units which
// depend on them.
type unitFixture struct {
	app     *stack.App
	storage *ObjectStorage
	cert    *Certificate
	cdn     *CDN
}

func newUnitFixture(t *testing.T, files siteFiles, withCDN bool) unitFixture {
	t.Helper()
	ctx := context.Background()
	app, err := stack.NewApp(ctx, "Site")
	require.NoError(t, err)
	storage, err := NewObjectStorage(ctx, app, StorageUnit, ObjectStorageProps{
		AssetsPath:              files.assets,
		AssetBucket:             "assets",
		DeploymentHandlerExport: "handler",
	})
	require.NoError(t, err)
	cert, err := NewCertificate(ctx, app, CertificateUnit, CertificateProps{CertificateArn: testCertificateArn})
	require.NoError(t, err)
	f := unitFixture{app: app, storage: storage, cert: cert}
	if withCDN {
		f.cdn, err = NewCDN(ctx, app, CDNUnit, CDNProps{
			Bucket:           storage.Bucket.ID,
			Certificate:      cert.Certificate,
			EdgeFunctionPath: files.function,
			DomainName:       "example.com",
		})
		require.NoError(t, err)
	}
	return f
}

func TestUnits_MissingInputDeclaresNothing(t *testing.T) {
	files := newSiteFiles(t)
	missingPath := filepath.Join(t.TempDir(), "missing")

	tests := []struct {
		name    string
		withCDN bool
		compose func(ctx context.Context, f unitFixture) error
	}{
		{
			name: "storage without assets path",
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewObjectStorage(ctx, f.app, "Storage2", ObjectStorageProps{AssetBucket: "a", DeploymentHandlerExport: "h"})
				return err
			},
		},
		{
			name: "storage with non-existent assets path",
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewObjectStorage(ctx, f.app, "Storage2", ObjectStorageProps{AssetsPath: missingPath, AssetBucket: "a", DeploymentHandlerExport: "h"})
				return err
			},
		},
		{
			name: "certificate without ARN",
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewCertificate(ctx, f.app, "Certificate2", CertificateProps{})
				return err
			},
		},
		{
			name: "cdn without bucket",
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewCDN(ctx, f.app, "CDN2", CDNProps{
					Certificate:      f.cert.Certificate,
					EdgeFunctionPath: files.function,
					DomainName:       "example.com",
				})
				return err
			},
		},
		{
			name: "cdn without certificate",
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewCDN(ctx, f.app, "CDN2", CDNProps{
					Bucket:           f.storage.Bucket.ID,
					EdgeFunctionPath: files.function,
					DomainName:       "example.com",
				})
				return err
			},
		},
		{
			name: "cdn with non-existent function",
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewCDN(ctx, f.app, "CDN2", CDNProps{
					Bucket:           f.storage.Bucket.ID,
					Certificate:      f.cert.Certificate,
					EdgeFunctionPath: missingPath,
					DomainName:       "example.com",
				})
				return err
			},
		},
		{
			name: "cdn with undeclared bucket",
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewCDN(ctx, f.app, "CDN2", CDNProps{
					Bucket:           aws.Id(aws.BucketType, "Nope"),
					Certificate:      f.cert.Certificate,
					EdgeFunctionPath: files.function,
					DomainName:       "example.com",
				})
				return err
			},
		},
		{
			name:    "dns without hosted zone",
			withCDN: true,
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewDNS(ctx, f.app, "DNS2", DNSProps{Distribution: f.cdn.Distribution, DomainName: "example.com"})
				return err
			},
		},
		{
			name: "cdn without domain name",
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewCDN(ctx, f.app, "CDN2", CDNProps{
					Bucket:           f.storage.Bucket.ID,
					Certificate:      f.cert.Certificate,
					EdgeFunctionPath: files.function,
				})
				return err
			},
		},
		{
			name:    "dns without domain name",
			withCDN: true,
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewDNS(ctx, f.app, "DNS2", DNSProps{Distribution: f.cdn.Distribution, HostedZoneId: "Z123"})
				return err
			},
		},
		{
			name:    "dns with blank domain name",
			withCDN: true,
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewDNS(ctx, f.app, "DNS2", DNSProps{Distribution: f.cdn.Distribution, DomainName: "  ", HostedZoneId: "Z123"})
				return err
			},
		},
		{
			name:    "dns without distribution",
			withCDN: true,
			compose: func(ctx context.Context, f unitFixture) error {
				_, err := NewDNS(ctx, f.app, "DNS2", DNSProps{DomainName: "example.com", HostedZoneId: "Z123"})
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUnitFixture(t, files, tt.withCDN)
			before := resourceCount(t, f.app)
			units := len(f.app.Units())

			err := tt.compose(context.Background(), f)
			require.Error(t, err)
			assert.True(t, stack.IsConfigurationError(err), "expected a configuration error, got %v", err)
			assert.Equal(t, before, resourceCount(t, f.app), "no resources are declared")
			assert.Len(t, f.app.Units(), units, "no unit is created")
		})
	}
}

func TestNewCDN_InvalidFunction(t *testing.T) {
	files := newSiteFiles(t)
	f := newUnitFixture(t, files, false)
	before := resourceCount(t, f.app)

	ctrl := gomock.NewController(t)
	loader := NewMockLoader(ctrl)
	loader.EXPECT().
		Load(gomock.Any(), files.function).
		Return(nil, edgefn.InvalidFunctionError{Path: files.function, Reason: "syntax error"})

	_, err := NewCDN(context.Background(), f.app, CDNUnit, CDNProps{
		Bucket:           f.storage.Bucket.ID,
		Certificate:      f.cert.Certificate,
		EdgeFunctionPath: files.function,
		DomainName:       "example.com",
		Loader:           loader,
	})
	assert.ErrorAs(t, err, &edgefn.InvalidFunctionError{})
	assert.Equal(t, before, resourceCount(t, f.app))
}

func TestNewCDN_ErrorPageTTL(t *testing.T) {
	files := newSiteFiles(t)
	f := newUnitFixture(t, files, false)

	cdn, err := NewCDN(context.Background(), f.app, CDNUnit, CDNProps{
		Bucket:           f.storage.Bucket.ID,
		Certificate:      f.cert.Certificate,
		EdgeFunctionPath: files.function,
		DomainName:       "example.com",
		ErrorPageTTL:     5 * time.Minute,
	})
	require.NoError(t, err)
	dist, err := f.app.Resource(cdn.Distribution)
	require.NoError(t, err)
	assert.Equal(t, 300, property(t, dist, "DistributionConfig.CustomErrorResponses[0].ErrorCachingMinTTL"))
}

func TestAliasRecordName(t *testing.T) {
	assert.Equal(t, "ApexAliasA", aliasRecordName("example.com", "example.com", "A"))
	assert.Equal(t, "WwwAliasAAAA", aliasRecordName("example.com", "www.example.com", "AAAA"))
}
