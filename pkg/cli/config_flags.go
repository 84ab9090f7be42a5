package cli

import (
	"errors"
	"os"

	"github.com/klothoplatform/spa-stack/pkg/config"
	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// DefaultConfigFiles are read, in order, when no `--config` is given. The first one that exists is used.
var DefaultConfigFiles = []string{"spa.yaml", "spa.yml", "spa.toml", "spa.json"}

type siteFlags struct {
	configFile string
	cfg        config.Config
	flags      *pflag.FlagSet
}

// addSiteFlags binds the flags that override configuration values. Only flags that were explicitly set are
// applied, so the defaults shown in help never mask the file or environment.
func addSiteFlags(flags *pflag.FlagSet) *siteFlags {
	sf := &siteFlags{flags: flags}
	defaults := config.Default()

	flags.StringVarP(&sf.configFile, "config", "c", "", "Config file (yaml, toml or json)")
	flags.StringVar(&sf.cfg.AppName, "app", defaults.AppName, "App name, used for the root stack")
	flags.StringVar(&sf.cfg.DomainName, "domain-name", "", "Domain name of the site")
	flags.StringVar(&sf.cfg.Subdomain, "subdomain", "", "Subdomain of the domain name to serve the site from")
	flags.StringVar(&sf.cfg.HostedZoneId, "hosted-zone-id", "", "Route 53 hosted zone of the domain name")
	flags.StringVar(&sf.cfg.CertificateArn, "certificate-arn", "", "ACM certificate (in us-east-1) covering the site")
	flags.StringVar(&sf.cfg.Account, "account", "", "Target AWS account")
	flags.StringVar(&sf.cfg.Region, "region", "", "Target AWS region")
	flags.StringVar(&sf.cfg.AssetsPath, "assets-path", "", "Directory of static assets")
	flags.StringSliceVar(&sf.cfg.AssetExcludes, "exclude", nil, "Glob patterns of assets to leave out")
	flags.StringVar(&sf.cfg.EdgeFunctionPath, "edge-function", "", "CloudFront viewer-request function source")
	flags.StringVar(&sf.cfg.OriginAccess, "origin-access", defaults.OriginAccess, "How CloudFront reads the bucket (identity, control)")
	flags.StringVar(&sf.cfg.AssetBucket, "asset-bucket", defaults.AssetBucket, "Bucket assets are published to")
	flags.StringVar(&sf.cfg.PriceClass, "price-class", "", "CloudFront price class")
	flags.BoolVar(&sf.cfg.IPv6, "ipv6", false, "Enable IPv6 and add AAAA records")
	return sf
}

func (sf *siteFlags) configPath() (string, error) {
	if sf.configFile != "" {
		return sf.configFile, nil
	}
	for _, f := range DefaultConfigFiles {
		_, err := os.Stat(f)
		switch {
		case err == nil:
			return f, nil
		case !errors.Is(err, os.ErrNotExist):
			return "", err
		}
	}
	return "", nil
}

// load resolves the configuration with precedence flags > environment > file > defaults.
func (sf *siteFlags) load() (config.Config, error) {
	cfg := config.Default()

	path, err := sf.configPath()
	if err != nil {
		return cfg, err
	}
	if path != "" {
		cfg, err = config.ReadConfig(path)
		if err != nil {
			return cfg, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return cfg, err
	}

	set := func(name string, dst *string, v string) {
		if sf.flags.Changed(name) {
			*dst = v
		}
	}
	set("app", &cfg.AppName, sf.cfg.AppName)
	set("domain-name", &cfg.DomainName, sf.cfg.DomainName)
	set("subdomain", &cfg.Subdomain, sf.cfg.Subdomain)
	set("hosted-zone-id", &cfg.HostedZoneId, sf.cfg.HostedZoneId)
	set("certificate-arn", &cfg.CertificateArn, sf.cfg.CertificateArn)
	set("account", &cfg.Account, sf.cfg.Account)
	set("region", &cfg.Region, sf.cfg.Region)
	set("assets-path", &cfg.AssetsPath, sf.cfg.AssetsPath)
	set("edge-function", &cfg.EdgeFunctionPath, sf.cfg.EdgeFunctionPath)
	set("origin-access", &cfg.OriginAccess, sf.cfg.OriginAccess)
	set("asset-bucket", &cfg.AssetBucket, sf.cfg.AssetBucket)
	set("price-class", &cfg.PriceClass, sf.cfg.PriceClass)
	if sf.flags.Changed("exclude") {
		cfg.AssetExcludes = sf.cfg.AssetExcludes
	}
	if sf.flags.Changed("ipv6") {
		cfg.IPv6 = sf.cfg.IPv6
	}

	if err := cfg.Validate(); err != nil {
		return cfg, pkgerrors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}
