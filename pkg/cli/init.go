package cli

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klothoplatform/spa-stack/pkg/config"
	"github.com/klothoplatform/spa-stack/pkg/edgefn"
	"github.com/klothoplatform/spa-stack/pkg/io"
	"github.com/klothoplatform/spa-stack/pkg/templateutils"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templates embed.FS

var configTemplate = templateutils.MustTemplate(templates, "templates/spa.yaml.tmpl")

const (
	initConfigFile   = "spa.yaml"
	initFunctionFile = "url-mapper.js"
)

type initOptions struct {
	dir   string
	force bool
	cfg   config.Config
}

func newInitCommand() *cobra.Command {
	opts := initOptions{cfg: config.Default()}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a spa.yaml and a default viewer-request function",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.dir, "dir", "d", ".", "Directory to create the files in")
	flags.BoolVarP(&opts.force, "force", "f", false, "Overwrite existing files")
	flags.StringVar(&opts.cfg.AppName, "app", opts.cfg.AppName, "App name")
	flags.StringVar(&opts.cfg.DomainName, "domain-name", "example.com", "Domain name of the site")
	flags.StringVar(&opts.cfg.Subdomain, "subdomain", "", "Subdomain to serve the site from")
	flags.StringVar(&opts.cfg.HostedZoneId, "hosted-zone-id", "", "Route 53 hosted zone of the domain name")
	flags.StringVar(&opts.cfg.CertificateArn, "certificate-arn", "", "ACM certificate (in us-east-1) covering the site")
	flags.StringVar(&opts.cfg.AssetsPath, "assets-path", "dist", "Directory of static assets")
	flags.StringVar(&opts.cfg.OriginAccess, "origin-access", opts.cfg.OriginAccess, "How CloudFront reads the bucket (identity, control)")
	return cmd
}

// initFiles renders the scaffolding for `opts`. Paths are relative to the init directory.
func initFiles(opts initOptions) ([]io.File, error) {
	cfg := opts.cfg
	cfg.EdgeFunctionPath = initFunctionFile

	content, err := templateutils.Execute(configTemplate, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not render config")
	}
	return []io.File{
		&io.RawFile{FPath: initConfigFile, Content: content},
		&io.RawFile{FPath: initFunctionFile, Content: edgefn.DefaultUrlMapper},
	}, nil
}

func runInit(opts initOptions) error {
	files, err := initFiles(opts)
	if err != nil {
		return err
	}
	if !opts.force {
		for _, f := range files {
			path := filepath.Join(opts.dir, f.Path())
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
	}
	if err := io.OutputTo(zap.L(), files, opts.dir); err != nil {
		return err
	}
	zap.S().Infof("Created %s and %s in %s", initConfigFile, initFunctionFile, opts.dir)
	return nil
}
