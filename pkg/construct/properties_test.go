package construct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResource_SetGetProperty(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	r := CreateResource(ResourceId{Provider: "aws", Type: "cloudfront_distribution", Name: "dist"})
	require.NoError(r.SetProperty("DistributionConfig.DefaultRootObject", "index.html"))
	require.NoError(r.SetProperty("DistributionConfig.Aliases", []any{"example.com", "www.example.com"}))
	require.NoError(r.SetProperty("DistributionConfig.Aliases[1]", "app.example.com"))

	v, err := r.GetProperty("DistributionConfig.DefaultRootObject")
	require.NoError(err)
	assert.Equal("index.html", v)

	v, err = r.GetProperty("DistributionConfig.Aliases[1]")
	require.NoError(err)
	assert.Equal("app.example.com", v)

	v, err = r.GetProperty("DistributionConfig.Missing.Deeper")
	require.NoError(err)
	assert.Nil(v)

	err = r.SetProperty("DistributionConfig.DefaultRootObject.Nested", true)
	var pathErr *PropertyPathError
	assert.ErrorAs(err, &pathErr)

	assert.Error(r.SetProperty("DistributionConfig.Aliases[5]", "x"))
}

func TestResource_AppendProperty(t *testing.T) {
	assert, require := assert.New(t), require.New(t)

	r := CreateResource(ResourceId{Provider: "aws", Type: "s3_bucket_policy", Name: "policy"})
	require.NoError(r.AppendProperty("PolicyDocument.Statement", map[string]any{"Sid": "a"}))
	require.NoError(r.AppendProperty("PolicyDocument.Statement", map[string]any{"Sid": "b"}))

	v, err := r.GetProperty("PolicyDocument.Statement")
	require.NoError(err)
	assert.Len(v, 2)

	require.NoError(r.SetProperty("PolicyDocument.Version", "2012-10-17"))
	assert.Error(r.AppendProperty("PolicyDocument.Version", "x"))
}

func TestReferences(t *testing.T) {
	bucket := ResourceId{Provider: "aws", Type: "s3_bucket", Namespace: "storage", Name: "origin"}
	oai := ResourceId{Provider: "aws", Type: "cloudfront_origin_access_identity", Namespace: "cdn", Name: "oai"}

	props := Properties{
		"Bucket": Ref{Resource: bucket},
		"PolicyDocument": map[string]any{
			"Statement": []any{
				map[string]any{
					"Principal": map[string]any{"CanonicalUser": PropertyRef{Resource: oai, Property: "S3CanonicalUserId"}},
					"Resource":  Join{Values: []any{PropertyRef{Resource: bucket, Property: "Arn"}, "/*"}},
				},
			},
		},
		"Suffix": Select{Index: 4, List: Split{Delimiter: "-", Source: PseudoStackId}},
	}

	assert.Equal(t, []ResourceId{oai, bucket}, References(props))
}
