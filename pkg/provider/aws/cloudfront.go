package aws

import (
	"fmt"

	"github.com/klothoplatform/spa-stack/pkg/construct"
)

const (
	// OriginAccessIdentity grants a legacy origin access identity read access through its canonical user.
	OriginAccessIdentity = "identity"
	// OriginAccessControl signs origin requests and grants the CloudFront service principal read access,
	// scoped to the distribution.
	OriginAccessControl = "control"

	CloudfrontFunctionRuntime = "cloudfront-js-1.0"
	MinimumProtocolVersion    = "TLSv1.2_2021"
	cachingOptimizedPolicyId  = "658327ea-f89d-4fab-a63d-7e88639e58f6"
	viewerRequestEventType    = "viewer-request"
	maxCloudfrontFunctionName = 64
	// the delimiter plus the last UUID group of a stack id
	suffixReserve              = 1 + 12
	cloudfrontServicePrincipal = "cloudfront.amazonaws.com"
)

func OriginAccessIdentityProperties(comment string) construct.Properties {
	return construct.Properties{
		"CloudFrontOriginAccessIdentityConfig": map[string]any{
			"Comment": comment,
		},
	}
}

func OriginAccessControlProperties(name any, description string) construct.Properties {
	return construct.Properties{
		"OriginAccessControlConfig": map[string]any{
			"Name":                          name,
			"Description":                   description,
			"OriginAccessControlOriginType": "s3",
			"SigningBehavior":               "always",
			"SigningProtocol":               "sigv4",
		},
	}
}

// OriginReadStatement grants the CloudFront origin principal read access to every object in `bucket`. For
// [OriginAccessIdentity], `principal` is the identity; for [OriginAccessControl] it is the distribution.
func OriginReadStatement(mode string, bucket Bucket, principal construct.ResourceId) (PolicyStatement, error) {
	stmt := PolicyStatement{
		Sid:      "AllowCloudFrontRead",
		Effect:   "Allow",
		Action:   []string{"s3:GetObject"},
		Resource: []any{bucket.ObjectsArn()},
	}
	switch mode {
	case OriginAccessIdentity:
		stmt.Principal = map[string]any{
			"CanonicalUser": construct.PropertyRef{Resource: principal, Property: "S3CanonicalUserId"},
		}
	case OriginAccessControl:
		stmt.Principal = map[string]any{"Service": cloudfrontServicePrincipal}
		stmt.Condition = map[string]any{
			"StringEquals": map[string]any{
				"AWS:SourceArn": DistributionArn(principal),
			},
		}
	default:
		return stmt, fmt.Errorf("unsupported origin access mode %q", mode)
	}
	return stmt, nil
}

func DistributionArn(distribution construct.ResourceId) any {
	return construct.Join{Values: []any{
		"arn:aws:cloudfront::",
		construct.PseudoAccountId,
		":distribution/",
		construct.Ref{Resource: distribution},
	}}
}

// FunctionName prefixes `suffix` with as much of `base` as fits in the maximum function name length.
func FunctionName(base string, suffix any) any {
	if len(base) > maxCloudfrontFunctionName-suffixReserve {
		base = base[:maxCloudfrontFunctionName-suffixReserve]
	}
	return construct.Join{Delimiter: "-", Values: []any{base, suffix}}
}

func FunctionProperties(name any, comment, code string) construct.Properties {
	return construct.Properties{
		"Name":         name,
		"AutoPublish":  true,
		"FunctionCode": code,
		"FunctionConfig": map[string]any{
			"Comment": comment,
			"Runtime": CloudfrontFunctionRuntime,
		},
	}
}

// ErrorResponse maps an error returned by the origin to the response served to viewers.
type ErrorResponse struct {
	ErrorCode          int
	ResponseCode       int
	ResponsePagePath   string
	ErrorCachingMinTTL int
}

func (e ErrorResponse) toMap() map[string]any {
	return map[string]any{
		"ErrorCode":          e.ErrorCode,
		"ResponseCode":       e.ResponseCode,
		"ResponsePagePath":   e.ResponsePagePath,
		"ErrorCachingMinTTL": e.ErrorCachingMinTTL,
	}
}

// Distribution describes a CloudFront distribution serving a single S3 origin.
type Distribution struct {
	Comment           string
	Aliases           []string
	CertificateArn    any
	DefaultRootObject string
	PriceClass        string
	// Origin
	OriginDomainName any
	AccessMode       string
	// AccessPrincipal is the origin access identity or control, depending on AccessMode.
	AccessPrincipal construct.ResourceId
	// ViewerRequestFunction is optional.
	ViewerRequestFunction construct.ResourceId
	ErrorResponses        []ErrorResponse
	IPv6                  bool
}

const s3OriginId = "S3Origin"

func (d Distribution) Validate() error {
	switch {
	case len(d.Aliases) == 0:
		return fmt.Errorf("distribution has no aliases")
	case d.CertificateArn == nil:
		return fmt.Errorf("distribution has no certificate")
	case d.OriginDomainName == nil:
		return fmt.Errorf("distribution has no origin")
	case d.AccessPrincipal.IsZero():
		return fmt.Errorf("distribution has no origin access principal")
	case d.AccessMode != OriginAccessIdentity && d.AccessMode != OriginAccessControl:
		return fmt.Errorf("unsupported origin access mode %q", d.AccessMode)
	}
	return nil
}

func (d Distribution) Properties() construct.Properties {
	origin := map[string]any{
		"Id":         s3OriginId,
		"DomainName": d.OriginDomainName,
	}
	switch d.AccessMode {
	case OriginAccessIdentity:
		origin["S3OriginConfig"] = map[string]any{
			"OriginAccessIdentity": construct.Join{Values: []any{
				"origin-access-identity/cloudfront/",
				construct.Ref{Resource: d.AccessPrincipal},
			}},
		}
	case OriginAccessControl:
		origin["S3OriginConfig"] = map[string]any{"OriginAccessIdentity": ""}
		origin["OriginAccessControlId"] = construct.PropertyRef{Resource: d.AccessPrincipal, Property: "Id"}
	}

	behavior := map[string]any{
		"TargetOriginId":       s3OriginId,
		"Compress":             true,
		"AllowedMethods":       []any{"GET", "HEAD", "OPTIONS"},
		"CachedMethods":        []any{"GET", "HEAD"},
		"ViewerProtocolPolicy": "redirect-to-https",
		"CachePolicyId":        cachingOptimizedPolicyId,
	}
	if !d.ViewerRequestFunction.IsZero() {
		behavior["FunctionAssociations"] = []any{
			map[string]any{
				"EventType":   viewerRequestEventType,
				"FunctionARN": construct.PropertyRef{Resource: d.ViewerRequestFunction, Property: "FunctionARN"},
			},
		}
	}

	errorResponses := make([]any, len(d.ErrorResponses))
	for i, e := range d.ErrorResponses {
		errorResponses[i] = e.toMap()
	}

	config := map[string]any{
		"Enabled":              true,
		"Comment":              d.Comment,
		"Aliases":              toAnySlice(d.Aliases),
		"DefaultRootObject":    d.DefaultRootObject,
		"HttpVersion":          "http2",
		"IPV6Enabled":          d.IPv6,
		"Origins":              []any{origin},
		"DefaultCacheBehavior": behavior,
		"CustomErrorResponses": errorResponses,
		"ViewerCertificate": map[string]any{
			"AcmCertificateArn":      d.CertificateArn,
			"SslSupportMethod":       "sni-only",
			"MinimumProtocolVersion": MinimumProtocolVersion,
		},
	}
	if d.PriceClass != "" {
		config["PriceClass"] = d.PriceClass
	}
	return construct.Properties{"DistributionConfig": config}
}

// DistributionURL is the `https://` URL of the distribution's CloudFront domain.
func DistributionURL(distribution construct.ResourceId) any {
	return construct.Join{Values: []any{
		"https://",
		construct.PropertyRef{Resource: distribution, Property: "DomainName"},
	}}
}
