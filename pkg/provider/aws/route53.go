package aws

import (
	"github.com/klothoplatform/spa-stack/pkg/construct"
)

// AliasRecordProperties points `name` at a CloudFront distribution's domain. `recordType` is `A` or `AAAA`.
func AliasRecordProperties(zone construct.ResourceId, name, recordType string, distribution construct.ResourceId) construct.Properties {
	return construct.Properties{
		"HostedZoneId": construct.Ref{Resource: zone},
		"Name":         name,
		"Type":         recordType,
		"AliasTarget": map[string]any{
			"DNSName":              construct.PropertyRef{Resource: distribution, Property: "DomainName"},
			"HostedZoneId":         cloudfrontAliasHostedZoneId,
			"EvaluateTargetHealth": false,
		},
	}
}

// Hostnames returns the apex and `www` names for a domain.
func Hostnames(domain string) []string {
	return []string{domain, "www." + domain}
}
