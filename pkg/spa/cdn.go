package spa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/edgefn"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/provider/aws"
	"github.com/klothoplatform/spa-stack/pkg/stack"
	"go.uber.org/zap"
)

const (
	DefaultRootObject      = "index.html"
	NotFoundPage           = "/404.html"
	DefaultErrorPageTTL    = 30 * time.Minute
	DistributionURLOutput  = "CloudFrontDistributionURL"
	urlMapperFunctionName  = "url-mapper"
	distributionResource   = "Distribution"
	importedBucketResource = "ImportedBucket"
)

type (
	CDNProps struct {
		// Bucket is the origin bucket, owned by another unit.
		Bucket construct.ResourceId
		// Certificate must cover DomainName and its `www` subdomain.
		Certificate      construct.ResourceId
		EdgeFunctionPath string
		DomainName       string
		// AccessMode is [aws.OriginAccessIdentity] (the default) or [aws.OriginAccessControl].
		AccessMode   string
		ErrorPageTTL time.Duration
		PriceClass   string
		IPv6         bool
		Loader       edgefn.Loader
	}

	CDN struct {
		Unit            *stack.Unit
		Distribution    construct.ResourceId
		Function        construct.ResourceId
		AccessPrincipal construct.ResourceId
		Grant           aws.GrantResult
	}
)

// requireResource checks that `id` is set and already part of the app.
func requireResource(app *stack.App, unit, field string, id construct.ResourceId) error {
	if err := stack.RequireReference(unit, field, id); err != nil {
		return err
	}
	if _, err := app.Resource(id); err != nil {
		return fmt.Errorf("%w: %w", stack.MissingReferenceError{Unit: unit, Field: field}, err)
	}
	return nil
}

// NewCDN serves the bucket through a CloudFront distribution. Requests are rewritten by the edge function before
// they reach the origin, and origin 403s (S3's response for missing keys) are served as `/404.html` so client
// side routing can handle any path.
func NewCDN(ctx context.Context, app *stack.App, name string, props CDNProps) (*CDN, error) {
	if props.AccessMode == "" {
		props.AccessMode = aws.OriginAccessIdentity
	}
	if props.ErrorPageTTL == 0 {
		props.ErrorPageTTL = DefaultErrorPageTTL
	}
	var modeErr error
	if props.AccessMode != aws.OriginAccessIdentity && props.AccessMode != aws.OriginAccessControl {
		modeErr = fmt.Errorf("%s: unsupported origin access mode %q", name, props.AccessMode)
	}
	err := errors.Join(
		requireResource(app, name, "bucket", props.Bucket),
		requireResource(app, name, "certificate", props.Certificate),
		stack.RequirePath(name, "edge function", props.EdgeFunctionPath),
		stack.RequireValue(name, "domain name", props.DomainName),
		modeErr,
	)
	if err != nil {
		return nil, err
	}

	loader := props.Loader
	if loader == nil {
		loader = edgefn.FileLoader{}
	}
	fn, err := loader.Load(ctx, props.EdgeFunctionPath)
	if err != nil {
		return nil, err
	}

	originRes, err := app.Resource(props.Bucket)
	if err != nil {
		return nil, err
	}
	origin, err := aws.AsBucket(originRes)
	if err != nil {
		return nil, err
	}

	unit, err := app.NewUnit(name, "CloudFront distribution serving the origin bucket")
	if err != nil {
		return nil, err
	}
	log := logging.GetLogger(ctx).With(logging.UnitField(name))

	importedRes, err := unit.Import(aws.Id(aws.BucketType, importedBucketResource), origin.ImportProperties())
	if err != nil {
		return nil, err
	}
	bucket, err := aws.AsBucket(importedRes)
	if err != nil {
		return nil, err
	}

	var principal *construct.Resource
	switch props.AccessMode {
	case aws.OriginAccessIdentity:
		principal, err = unit.Declare(
			aws.Id(aws.OriginAccessIdentityType, "OriginAccessIdentity"),
			aws.OriginAccessIdentityProperties(fmt.Sprintf("Access identity for %s", props.DomainName)),
		)
	case aws.OriginAccessControl:
		principal, err = unit.Declare(
			aws.Id(aws.OriginAccessControlType, "OriginAccessControl"),
			aws.OriginAccessControlProperties(
				aws.FunctionName(app.Name+"-oac", unit.Suffix()),
				fmt.Sprintf("Access control for %s", props.DomainName),
			),
		)
	}
	if err != nil {
		return nil, err
	}

	function, err := unit.Declare(aws.Id(aws.CloudfrontFunctionType, "UrlMapper"), aws.FunctionProperties(
		aws.FunctionName(app.Name+"-"+urlMapperFunctionName, unit.Suffix()),
		"Rewrites viewer request paths to index documents",
		fn.Code,
	))
	if err != nil {
		return nil, err
	}

	distribution := aws.Distribution{
		Comment:               fmt.Sprintf("%s (%s)", props.DomainName, app.Name),
		Aliases:               aws.Hostnames(props.DomainName),
		CertificateArn:        construct.Ref{Resource: props.Certificate},
		DefaultRootObject:     DefaultRootObject,
		PriceClass:            props.PriceClass,
		OriginDomainName:      bucket.RegionalDomainName(),
		AccessMode:            props.AccessMode,
		AccessPrincipal:       principal.ID,
		ViewerRequestFunction: function.ID,
		ErrorResponses: []aws.ErrorResponse{
			{
				ErrorCode:          403,
				ResponseCode:       200,
				ResponsePagePath:   NotFoundPage,
				ErrorCachingMinTTL: int(props.ErrorPageTTL / time.Second),
			},
		},
		IPv6: props.IPv6,
	}
	if err := distribution.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	dist, err := unit.Declare(aws.Id(aws.CloudfrontDistributionType, distributionResource), distribution.Properties())
	if err != nil {
		return nil, err
	}

	grantee := principal.ID
	if props.AccessMode == aws.OriginAccessControl {
		grantee = dist.ID
	}
	stmt, err := aws.OriginReadStatement(props.AccessMode, bucket, grantee)
	if err != nil {
		return nil, err
	}
	grant, err := aws.EnsureGrant(ctx, unit, bucket, stmt)
	if err != nil {
		return nil, err
	}
	log.Debug("Granted origin read", zap.Stringer("outcome", grant.Outcome), logging.ResourceField(grant.Policy))

	if err := unit.AddOutput(DistributionURLOutput, "URL of the CloudFront distribution", aws.DistributionURL(dist.ID)); err != nil {
		return nil, err
	}
	log.Info("Declared distribution", zap.Strings("aliases", distribution.Aliases), zap.String("origin_access", props.AccessMode))

	return &CDN{
		Unit:            unit,
		Distribution:    dist.ID,
		Function:        function.ID,
		AccessPrincipal: principal.ID,
		Grant:           grant,
	}, nil
}
