package aws

import (
	"fmt"
	"sort"

	"github.com/klothoplatform/spa-stack/pkg/construct"
)

const Provider = "aws"

const (
	BucketType                  = "s3_bucket"
	BucketPolicyType            = "s3_bucket_policy"
	BucketDeploymentType        = "s3_bucket_deployment"
	OriginAccessIdentityType    = "cloudfront_origin_access_identity"
	OriginAccessControlType     = "cloudfront_origin_access_control"
	CloudfrontFunctionType      = "cloudfront_function"
	CloudfrontDistributionType  = "cloudfront_distribution"
	CertificateType             = "acm_certificate"
	HostedZoneType              = "route53_hosted_zone"
	RecordSetType               = "route53_record"
	NestedStackType             = "cloudformation_stack"
	cloudfrontAliasHostedZoneId = "Z2FDTNDATAQYW2"
)

// ResourceType describes how a resource type is rendered to, and referenced in, a template.
type ResourceType struct {
	// CFNType is the CloudFormation type name, eg `AWS::S3::Bucket`.
	CFNType string
	// RefProperty is the property an imported resource must provide to stand in for `Ref`.
	RefProperty string
	// Attributes lists the names valid for `Fn::GetAtt`.
	Attributes []string
	// DeletionPolicy is applied on delete and on replacement. Empty uses the provisioning engine's default.
	DeletionPolicy string
}

var types = map[string]ResourceType{
	BucketType: {
		CFNType:        "AWS::S3::Bucket",
		RefProperty:    "BucketName",
		Attributes:     []string{"Arn", "DomainName", "RegionalDomainName", "WebsiteURL"},
		DeletionPolicy: "Delete",
	},
	BucketPolicyType: {
		CFNType:     "AWS::S3::BucketPolicy",
		RefProperty: "Id",
	},
	BucketDeploymentType: {
		CFNType:     "Custom::BucketDeployment",
		RefProperty: "Id",
		Attributes:  []string{"DestinationBucketArn"},
	},
	OriginAccessIdentityType: {
		CFNType:     "AWS::CloudFront::CloudFrontOriginAccessIdentity",
		RefProperty: "Id",
		Attributes:  []string{"Id", "S3CanonicalUserId"},
	},
	OriginAccessControlType: {
		CFNType:     "AWS::CloudFront::OriginAccessControl",
		RefProperty: "Id",
		Attributes:  []string{"Id"},
	},
	CloudfrontFunctionType: {
		CFNType:     "AWS::CloudFront::Function",
		RefProperty: "FunctionARN",
		Attributes:  []string{"FunctionARN", "FunctionMetadata.FunctionARN", "Stage"},
	},
	CloudfrontDistributionType: {
		CFNType:     "AWS::CloudFront::Distribution",
		RefProperty: "Id",
		Attributes:  []string{"DomainName", "Id"},
	},
	CertificateType: {
		CFNType:     "AWS::CertificateManager::Certificate",
		RefProperty: "Arn",
	},
	HostedZoneType: {
		CFNType:     "AWS::Route53::HostedZone",
		RefProperty: "Id",
		Attributes:  []string{"Id", "NameServers"},
	},
	RecordSetType: {
		CFNType:     "AWS::Route53::RecordSet",
		RefProperty: "Name",
	},
	NestedStackType: {
		CFNType:     "AWS::CloudFormation::Stack",
		RefProperty: "Arn",
	},
}

// Id returns the id of an `aws` resource. The namespace is filled in by the unit the resource is added to.
func Id(typ, name string) construct.ResourceId {
	return construct.ResourceId{Provider: Provider, Type: typ, Name: name}
}

// Lookup returns the type information for `id`.
func Lookup(id construct.ResourceId) (ResourceType, error) {
	if id.Provider != Provider {
		return ResourceType{}, fmt.Errorf("unsupported provider %q for %s", id.Provider, id)
	}
	t, ok := types[id.Type]
	if !ok {
		return ResourceType{}, fmt.Errorf("unsupported resource type %q for %s", id.Type, id)
	}
	return t, nil
}

// HasAttribute reports whether `name` may be read from resources of type `t` with `Fn::GetAtt`.
func (t ResourceType) HasAttribute(name string) bool {
	for _, a := range t.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// ImportedValue returns the value an imported resource stands in with. An empty `property` means its `Ref`
// value.
func ImportedValue(r *construct.Resource, property string) (any, error) {
	t, err := Lookup(r.ID)
	if err != nil {
		return nil, err
	}
	if property == "" {
		property = t.RefProperty
	}
	v, err := r.GetProperty(property)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("imported resource %s does not provide %q", r.ID, property)
	}
	return v, nil
}

// Types returns all supported type names, sorted.
func Types() []string {
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
