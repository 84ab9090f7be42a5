package aws

import (
	"fmt"

	"github.com/klothoplatform/spa-stack/pkg/construct"
)

// Bucket wraps an `s3_bucket` resource, declared or imported, with accessors for the values other resources
// need from it.
type Bucket struct {
	*construct.Resource
}

func AsBucket(r *construct.Resource) (Bucket, error) {
	if r == nil {
		return Bucket{}, fmt.Errorf("bucket is nil")
	}
	if r.ID.Provider != Provider || r.ID.Type != BucketType {
		return Bucket{}, fmt.Errorf("%s is not a bucket", r.ID)
	}
	return Bucket{Resource: r}, nil
}

func (b Bucket) Name() any {
	return construct.Ref{Resource: b.ID}
}

func (b Bucket) Arn() any {
	return construct.PropertyRef{Resource: b.ID, Property: "Arn"}
}

// ObjectsArn matches every object in the bucket.
func (b Bucket) ObjectsArn() any {
	return construct.Join{Values: []any{b.Arn(), "/*"}}
}

func (b Bucket) RegionalDomainName() any {
	return construct.PropertyRef{Resource: b.ID, Property: "RegionalDomainName"}
}

// ImportProperties are the properties a unit needs to import this bucket.
func (b Bucket) ImportProperties() construct.Properties {
	return construct.Properties{
		"BucketName":         b.Name(),
		"Arn":                b.Arn(),
		"RegionalDomainName": b.RegionalDomainName(),
	}
}

// PrivateBucketProperties blocks all public access and enforces bucket-owner object ownership.
func PrivateBucketProperties() construct.Properties {
	return construct.Properties{
		"PublicAccessBlockConfiguration": map[string]any{
			"BlockPublicAcls":       true,
			"BlockPublicPolicy":     true,
			"IgnorePublicAcls":      true,
			"RestrictPublicBuckets": true,
		},
		"OwnershipControls": map[string]any{
			"Rules": []any{
				map[string]any{"ObjectOwnership": "BucketOwnerEnforced"},
			},
		},
		"BucketEncryption": map[string]any{
			"ServerSideEncryptionConfiguration": []any{
				map[string]any{
					"ServerSideEncryptionByDefault": map[string]any{"SSEAlgorithm": "AES256"},
				},
			},
		},
		"Tags": []any{
			map[string]any{"Key": "spa:auto-delete-objects", "Value": "true"},
		},
	}
}

// BucketDeployment describes copying a staged asset archive into a destination bucket. It is handled by a
// custom resource provider deployed outside of the app and looked up by its export name.
type BucketDeployment struct {
	HandlerExport     string
	SourceBucket      any
	SourceKey         string
	DestinationBucket any
	Prune             bool
}

func (d BucketDeployment) Properties() construct.Properties {
	return construct.Properties{
		"ServiceToken":          construct.ImportValue{Name: d.HandlerExport},
		"SourceBucketNames":     []any{d.SourceBucket},
		"SourceObjectKeys":      []any{d.SourceKey},
		"DestinationBucketName": d.DestinationBucket,
		"Prune":                 d.Prune,
	}
}
