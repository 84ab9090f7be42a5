package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type (
	// Config is the input to composing a site. Fields are read from a file, then overridden by `SPA_*`
	// environment variables (see [Config.ApplyEnv]) and finally by command line flags.
	Config struct {
		AppName        string `json:"app" yaml:"app" toml:"app" mapstructure:"APP"`
		DomainName     string `json:"domain_name" yaml:"domain_name" toml:"domain_name" mapstructure:"DOMAIN_NAME"`
		Subdomain      string `json:"subdomain,omitempty" yaml:"subdomain,omitempty" toml:"subdomain,omitempty" mapstructure:"SUBDOMAIN"`
		HostedZoneId   string `json:"hosted_zone_id" yaml:"hosted_zone_id" toml:"hosted_zone_id" mapstructure:"HOSTED_ZONE_ID"`
		CertificateArn string `json:"certificate_arn" yaml:"certificate_arn" toml:"certificate_arn" mapstructure:"CERTIFICATE_ARN"`
		Account        string `json:"account,omitempty" yaml:"account,omitempty" toml:"account,omitempty" mapstructure:"ACCOUNT"`
		Region         string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty" mapstructure:"REGION"`

		AssetsPath       string   `json:"assets_path" yaml:"assets_path" toml:"assets_path" mapstructure:"ASSETS_PATH"`
		AssetExcludes    []string `json:"asset_excludes,omitempty" yaml:"asset_excludes,omitempty" toml:"asset_excludes,omitempty" mapstructure:"ASSET_EXCLUDES"`
		EdgeFunctionPath string   `json:"edge_function_path" yaml:"edge_function_path" toml:"edge_function_path" mapstructure:"EDGE_FUNCTION_PATH"`

		// OriginAccess is how CloudFront is allowed to read the bucket, either `identity` or `control`.
		OriginAccess            string   `json:"origin_access,omitempty" yaml:"origin_access,omitempty" toml:"origin_access,omitempty" mapstructure:"ORIGIN_ACCESS"`
		AssetBucket             string   `json:"asset_bucket,omitempty" yaml:"asset_bucket,omitempty" toml:"asset_bucket,omitempty" mapstructure:"ASSET_BUCKET"`
		DeploymentHandlerExport string   `json:"deployment_handler_export,omitempty" yaml:"deployment_handler_export,omitempty" toml:"deployment_handler_export,omitempty" mapstructure:"DEPLOYMENT_HANDLER_EXPORT"`
		ErrorPageTTL            Duration `json:"error_page_ttl,omitempty" yaml:"error_page_ttl,omitempty" toml:"error_page_ttl,omitempty" mapstructure:"ERROR_PAGE_TTL"`
		PriceClass              string   `json:"price_class,omitempty" yaml:"price_class,omitempty" toml:"price_class,omitempty" mapstructure:"PRICE_CLASS"`
		IPv6                    bool     `json:"ipv6,omitempty" yaml:"ipv6,omitempty" toml:"ipv6,omitempty" mapstructure:"IPV6"`

		// Format is what format the file was originally in, empty if it wasn't read from a file.
		Format string `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
	}

	// Duration reads and writes as a Go duration string, eg `30m`.
	Duration time.Duration
)

const (
	OriginAccessIdentity = "identity"
	OriginAccessControl  = "control"
)

var priceClasses = map[string]struct{}{
	"PriceClass_100": {},
	"PriceClass_200": {},
	"PriceClass_All": {},
}

func Default() Config {
	return Config{
		AppName:                 "StaticWebsite",
		OriginAccess:            OriginAccessIdentity,
		AssetBucket:             "spa-assets-${AWS::AccountId}-${AWS::Region}",
		DeploymentHandlerExport: "spa-bucket-deployment-handler",
		ErrorPageTTL:            Duration(30 * time.Minute),
	}
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) Seconds() int {
	return int(time.Duration(d) / time.Second)
}

// ReadConfig reads `fpath` over the defaults. The format is picked from the file extension.
func ReadConfig(fpath string) (Config, error) {
	cfg := Default()

	f, err := os.Open(fpath)
	if err != nil {
		return cfg, err
	}
	defer f.Close() // nolint:errcheck

	switch filepath.Ext(fpath) {
	case ".json":
		err = json.NewDecoder(f).Decode(&cfg)
		cfg.Format = "json"

	case ".yaml", ".yml":
		err = yaml.NewDecoder(f).Decode(&cfg)
		cfg.Format = "yaml"

	case ".toml":
		err = toml.NewDecoder(f).Decode(&cfg)
		cfg.Format = "toml"

	default:
		err = fmt.Errorf("unsupported config format %q", filepath.Ext(fpath))
	}
	if err != nil {
		return cfg, fmt.Errorf("could not read config %s: %w", fpath, err)
	}
	return cfg, nil
}

// SiteDomain is the apex of the site: the domain name, prefixed with the subdomain if one is set.
func (c Config) SiteDomain() string {
	if c.Subdomain == "" {
		return c.DomainName
	}
	return c.Subdomain + "." + c.DomainName
}

// Validate reports every missing or malformed field at once.
func (c Config) Validate() error {
	var errs []error
	required := []struct {
		field string
		value string
	}{
		{"app", c.AppName},
		{"domain_name", c.DomainName},
		{"hosted_zone_id", c.HostedZoneId},
		{"certificate_arn", c.CertificateArn},
		{"assets_path", c.AssetsPath},
		{"edge_function_path", c.EdgeFunctionPath},
		{"asset_bucket", c.AssetBucket},
		{"deployment_handler_export", c.DeploymentHandlerExport},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("missing required value %s", r.field))
		}
	}

	switch c.OriginAccess {
	case OriginAccessIdentity, OriginAccessControl:
	default:
		errs = append(errs, fmt.Errorf("origin_access must be %q or %q, got %q", OriginAccessIdentity, OriginAccessControl, c.OriginAccess))
	}
	if c.PriceClass != "" {
		if _, ok := priceClasses[c.PriceClass]; !ok {
			errs = append(errs, fmt.Errorf("unknown price_class %q", c.PriceClass))
		}
	}
	if c.ErrorPageTTL < 0 {
		errs = append(errs, fmt.Errorf("error_page_ttl must not be negative"))
	}
	if c.CertificateArn != "" && !strings.HasPrefix(c.CertificateArn, "arn:") {
		errs = append(errs, fmt.Errorf("certificate_arn %q is not an ARN", c.CertificateArn))
	}
	return errors.Join(errs...)
}
