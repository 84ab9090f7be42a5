package spa

import (
	"context"
	"errors"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/provider/aws"
	"github.com/klothoplatform/spa-stack/pkg/stack"
)

type (
	DNSProps struct {
		Distribution construct.ResourceId
		DomainName   string
		HostedZoneId string
		// ZoneName is the domain of the hosted zone. It defaults to DomainName and differs from it when the site
		// is served from a subdomain.
		ZoneName string
		// IPv6 adds AAAA records alongside the A records.
		IPv6 bool
	}

	DNS struct {
		Unit       *stack.Unit
		HostedZone construct.ResourceId
		Records    []construct.ResourceId
	}
)

// NewDNS points the apex and `www` hostnames of the domain at the distribution. Records which already exist in
// the zone are not detected here, and fail at deploy time.
func NewDNS(ctx context.Context, app *stack.App, name string, props DNSProps) (*DNS, error) {
	err := errors.Join(
		requireResource(app, name, "distribution", props.Distribution),
		stack.RequireValue(name, "domain name", props.DomainName),
		stack.RequireValue(name, "hosted zone id", props.HostedZoneId),
	)
	if err != nil {
		return nil, err
	}

	zoneName := props.ZoneName
	if zoneName == "" {
		zoneName = props.DomainName
	}

	unit, err := app.NewUnit(name, "Alias records for the distribution")
	if err != nil {
		return nil, err
	}
	zone, err := unit.Import(aws.Id(aws.HostedZoneType, "HostedZone"), construct.Properties{
		"Id":   props.HostedZoneId,
		"Name": zoneName,
	})
	if err != nil {
		return nil, err
	}

	recordTypes := []string{"A"}
	if props.IPv6 {
		recordTypes = append(recordTypes, "AAAA")
	}

	dns := &DNS{Unit: unit, HostedZone: zone.ID}
	for _, host := range aws.Hostnames(props.DomainName) {
		for _, typ := range recordTypes {
			record, err := unit.Declare(
				aws.Id(aws.RecordSetType, aliasRecordName(props.DomainName, host, typ)),
				aws.AliasRecordProperties(zone.ID, host, typ, props.Distribution),
			)
			if err != nil {
				return nil, err
			}
			dns.Records = append(dns.Records, record.ID)
		}
	}
	logging.GetLogger(ctx).Debug("Declared alias records", logging.UnitField(name))
	return dns, nil
}

// aliasRecordName is `ApexAlias<type>` for the domain itself, otherwise the subdomain label in PascalCase.
func aliasRecordName(domain, host, recordType string) string {
	label := "Apex"
	if host != domain {
		label = strcase.ToCamel(strings.TrimSuffix(host, "."+domain))
	}
	return label + "Alias" + recordType
}
