package spa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klothoplatform/spa-stack/pkg/assets"
	"github.com/klothoplatform/spa-stack/pkg/config"
	"github.com/klothoplatform/spa-stack/pkg/edgefn"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/stack"
	"go.uber.org/zap"
)

const (
	StorageUnit     = "ObjectStorage"
	CertificateUnit = "Certificate"
	CDNUnit         = "CloudFront"
	DNSUnit         = "DNS"
)

type (
	// RootProps are the collaborators used to read local inputs. Nil values use the filesystem.
	RootProps struct {
		Stager assets.Stager
		Loader edgefn.Loader
	}

	Root struct {
		App         *stack.App
		Storage     *ObjectStorage
		Certificate *Certificate
		CDN         *CDN
		DNS         *DNS
	}
)

// NewRoot composes the whole site. The configuration is validated up front so that no unit is created for
// incomplete input.
func NewRoot(ctx context.Context, cfg config.Config, props RootProps) (*Root, error) {
	log := logging.GetLogger(ctx)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	err := errors.Join(
		stack.RequirePath(cfg.AppName, "assets path", cfg.AssetsPath),
		stack.RequirePath(cfg.AppName, "edge function", cfg.EdgeFunctionPath),
	)
	if err != nil {
		return nil, err
	}

	app, err := stack.NewApp(ctx, cfg.AppName)
	if err != nil {
		return nil, err
	}
	domain := cfg.SiteDomain()
	log.Info("Composing site", zap.String("app", cfg.AppName), zap.String("domain", domain))

	storage, err := NewObjectStorage(ctx, app, StorageUnit, ObjectStorageProps{
		AssetsPath:              cfg.AssetsPath,
		Excludes:                cfg.AssetExcludes,
		AssetBucket:             cfg.AssetBucket,
		DeploymentHandlerExport: cfg.DeploymentHandlerExport,
		Stager:                  props.Stager,
	})
	if err != nil {
		return nil, err
	}

	cert, err := NewCertificate(ctx, app, CertificateUnit, CertificateProps{CertificateArn: cfg.CertificateArn})
	if err != nil {
		return nil, err
	}

	cdn, err := NewCDN(ctx, app, CDNUnit, CDNProps{
		Bucket:           storage.Bucket.ID,
		Certificate:      cert.Certificate,
		EdgeFunctionPath: cfg.EdgeFunctionPath,
		DomainName:       domain,
		AccessMode:       cfg.OriginAccess,
		ErrorPageTTL:     time.Duration(cfg.ErrorPageTTL),
		PriceClass:       cfg.PriceClass,
		IPv6:             cfg.IPv6,
		Loader:           props.Loader,
	})
	if err != nil {
		return nil, err
	}

	dns, err := NewDNS(ctx, app, DNSUnit, DNSProps{
		Distribution: cdn.Distribution,
		DomainName:   domain,
		HostedZoneId: cfg.HostedZoneId,
		ZoneName:     cfg.DomainName,
		IPv6:         cfg.IPv6,
	})
	if err != nil {
		return nil, err
	}

	// Storage and Certificate before CloudFront, CloudFront before DNS
	err = errors.Join(
		cdn.Unit.AddDependency(storage.Unit),
		cdn.Unit.AddDependency(cert.Unit),
		dns.Unit.AddDependency(cdn.Unit),
	)
	if err != nil {
		return nil, err
	}

	for _, o := range cdn.Unit.Outputs() {
		if err := app.Root().AddOutput(o.Name, o.Description, o.Value); err != nil {
			return nil, err
		}
	}

	return &Root{
		App:         app,
		Storage:     storage,
		Certificate: cert,
		CDN:         cdn,
		DNS:         dns,
	}, nil
}
