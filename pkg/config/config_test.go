package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lithammer/dedent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.DomainName = "example.com"
	cfg.HostedZoneId = "Z123"
	cfg.CertificateArn = "arn:aws:acm:us-east-1:123456789012:certificate/abc"
	cfg.AssetsPath = "dist"
	cfg.EdgeFunctionPath = "url-mapper.js"
	return cfg
}

func TestReadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "spa.yaml",
			content: dedent.Dedent(`
				app: Docs
				domain_name: example.com
				hosted_zone_id: Z123
				certificate_arn: arn:aws:acm:us-east-1:123456789012:certificate/abc
				assets_path: dist
				edge_function_path: url-mapper.js
				error_page_ttl: 5m
				asset_excludes:
				  - "**/*.map"
				`),
		},
		{
			name: "toml",
			file: "spa.toml",
			content: dedent.Dedent(`
				app = "Docs"
				domain_name = "example.com"
				hosted_zone_id = "Z123"
				certificate_arn = "arn:aws:acm:us-east-1:123456789012:certificate/abc"
				assets_path = "dist"
				edge_function_path = "url-mapper.js"
				error_page_ttl = "5m"
				asset_excludes = ["**/*.map"]
				`),
		},
		{
			name:    "json",
			file:    "spa.json",
			content: `{"app": "Docs", "domain_name": "example.com", "hosted_zone_id": "Z123", "certificate_arn": "arn:aws:acm:us-east-1:123456789012:certificate/abc", "assets_path": "dist", "edge_function_path": "url-mapper.js", "error_page_ttl": "5m", "asset_excludes": ["**/*.map"]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert, require := assert.New(t), require.New(t)
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := ReadConfig(path)
			require.NoError(err)
			assert.Equal(tt.name, cfg.Format)
			assert.Equal("Docs", cfg.AppName)
			assert.Equal("example.com", cfg.DomainName)
			assert.Equal(Duration(5*time.Minute), cfg.ErrorPageTTL)
			assert.Equal([]string{"**/*.map"}, cfg.AssetExcludes)
			assert.Equal(OriginAccessIdentity, cfg.OriginAccess, "defaults are kept")
			assert.NoError(cfg.Validate())
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "spa.ini")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		_, err := ReadConfig(path)
		assert.Error(t, err)
	})
}

func TestApplyEnv(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	cfg := validConfig()
	vars := Environ([]string{
		"HOME=/root",
		"SPA_DOMAIN_NAME=example.org",
		"SPA_IPV6=true",
		"SPA_ERROR_PAGE_TTL=90s",
		"SPA_ASSET_EXCLUDES=**/*.map,**/*.txt",
		"SPA_ORIGIN_ACCESS=control",
	})
	assert.Len(vars, 5)

	require.NoError(cfg.ApplyEnv(vars))
	assert.Equal("example.org", cfg.DomainName)
	assert.Equal("Z123", cfg.HostedZoneId, "unset variables keep their value")
	assert.True(cfg.IPv6)
	assert.Equal(90, cfg.ErrorPageTTL.Seconds())
	assert.Equal([]string{"**/*.map", "**/*.txt"}, cfg.AssetExcludes)
	assert.Equal(OriginAccessControl, cfg.OriginAccess)

	assert.Error(cfg.ApplyEnv(map[string]string{"ERROR_PAGE_TTL": "soon"}))
}

func TestValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(validConfig().Validate())

	cfg := Default()
	err := cfg.Validate()
	if assert.Error(err) {
		for _, field := range []string{"domain_name", "hosted_zone_id", "certificate_arn", "assets_path", "edge_function_path"} {
			assert.ErrorContains(err, field)
		}
	}

	cfg = validConfig()
	cfg.OriginAccess = "public"
	cfg.PriceClass = "PriceClass_1"
	cfg.CertificateArn = "abc"
	err = cfg.Validate()
	assert.ErrorContains(err, "origin_access")
	assert.ErrorContains(err, "price_class")
	assert.ErrorContains(err, "not an ARN")
}

func TestSiteDomain(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "example.com", cfg.SiteDomain())
	cfg.Subdomain = "docs"
	assert.Equal(t, "docs.example.com", cfg.SiteDomain())
}
