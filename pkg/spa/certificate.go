package spa

import (
	"context"

	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/provider/aws"
	"github.com/klothoplatform/spa-stack/pkg/stack"
)

type (
	CertificateProps struct {
		CertificateArn string
	}

	// Certificate references a certificate issued and validated outside of the app. Whether it covers the
	// site's domains is only checked by CloudFront when the distribution is deployed.
	Certificate struct {
		Unit        *stack.Unit
		Certificate construct.ResourceId
	}
)

func NewCertificate(ctx context.Context, app *stack.App, name string, props CertificateProps) (*Certificate, error) {
	if err := stack.RequireValue(name, "certificate ARN", props.CertificateArn); err != nil {
		return nil, err
	}
	unit, err := app.NewUnit(name, "Imported TLS certificate")
	if err != nil {
		return nil, err
	}
	cert, err := unit.Import(aws.Id(aws.CertificateType, "ImportedCertificate"), construct.Properties{
		"Arn": props.CertificateArn,
	})
	if err != nil {
		return nil, err
	}
	logging.GetLogger(ctx).Debug("Imported certificate", logging.UnitField(name), logging.ResourceField(cert.ID))
	return &Certificate{Unit: unit, Certificate: cert.ID}, nil
}
