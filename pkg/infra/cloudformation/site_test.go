package cloudformation_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klothoplatform/spa-stack/pkg/config"
	"github.com/klothoplatform/spa-stack/pkg/edgefn"
	"github.com/klothoplatform/spa-stack/pkg/infra/cloudformation"
	"github.com/klothoplatform/spa-stack/pkg/spa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_Site(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	dir := t.TempDir()
	dist := filepath.Join(dir, "dist")
	require.NoError(os.MkdirAll(dist, 0755))
	require.NoError(os.WriteFile(filepath.Join(dist, "index.html"), []byte("<html></html>"), 0644))
	fn := filepath.Join(dir, "url-mapper.js")
	require.NoError(os.WriteFile(fn, edgefn.DefaultUrlMapper, 0644))

	cfg := config.Default()
	cfg.AppName = "Site"
	cfg.DomainName = "example.com"
	cfg.HostedZoneId = "Z123"
	cfg.CertificateArn = "arn:aws:acm:us-east-1:123456789012:certificate/abc"
	cfg.AssetsPath = dist
	cfg.EdgeFunctionPath = fn

	root, err := spa.NewRoot(context.Background(), cfg, spa.RootProps{})
	require.NoError(err)

	plugin := cloudformation.Plugin{Config: cloudformation.Config{AssetBucket: cfg.AssetBucket}}
	asm, err := plugin.Translate(context.Background(), root.App)
	require.NoError(err)

	assert.Len(asm.Nested, 4)
	cdn := asm.Nested[spa.CDNUnit]
	require.NotNil(cdn)
	distribution := cdn.Resources[cloudformation.LogicalId(root.CDN.Distribution)]
	require.NotNil(distribution)
	assert.Equal("AWS::CloudFront::Distribution", distribution.Type)

	distConfig := distribution.Properties["DistributionConfig"].(map[string]any)
	assert.Equal([]any{map[string]any{
		"ErrorCode":          403,
		"ResponseCode":       200,
		"ResponsePagePath":   "/404.html",
		"ErrorCachingMinTTL": 1800,
	}}, distConfig["CustomErrorResponses"])
	assert.Equal(
		map[string]any{"Fn::ImportValue": "spa-bucket-deployment-handler"},
		asm.Nested[spa.StorageUnit].Resources[cloudformation.LogicalId(root.Storage.Deployment)].Properties["ServiceToken"],
	)

	url, ok := asm.Root.Outputs[spa.DistributionURLOutput]
	require.True(ok)
	assert.NotNil(url.Value)

	// the certificate is imported, so the CDN reads it without any parameter
	for name := range cdn.Parameters {
		assert.NotContains(name, "Certificate")
	}
	stackDeps := asm.Root.Resources[cloudformation.StackLogicalId(spa.CDNUnit)].DependsOn
	assert.Equal([]string{
		cloudformation.StackLogicalId(spa.CertificateUnit),
		cloudformation.StackLogicalId(spa.StorageUnit),
	}, stackDeps)
}
