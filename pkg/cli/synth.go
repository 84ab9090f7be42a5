package cli

import (
	"github.com/klothoplatform/spa-stack/pkg/config"
	"github.com/klothoplatform/spa-stack/pkg/infra/cloudformation"
	"github.com/klothoplatform/spa-stack/pkg/io"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/spa"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultOutDir = "cdk.out"

func newSynthCommand() *cobra.Command {
	var outDir, format string
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the site into CloudFormation templates and an asset manifest",
		Args:  cobra.NoArgs,
	}
	flags := cmd.Flags()
	site := addSiteFlags(flags)
	flags.StringVarP(&outDir, "output", "o", defaultOutDir, "Cloud assembly output directory")
	flags.StringVarP(&format, "format", "F", cloudformation.FormatJSON, "Template format (json, yaml)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := site.load()
		if err != nil {
			return err
		}
		return synth(cmd, cfg, format, outDir)
	}
	return cmd
}

func synth(cmd *cobra.Command, cfg config.Config, format, outDir string) error {
	ctx := logging.WithLogger(cmd.Context(), zap.L())
	log := logging.GetLogger(ctx)

	root, err := spa.NewRoot(ctx, cfg, spa.RootProps{})
	if err != nil {
		return errors.Wrap(err, "could not compose site")
	}

	plugin := cloudformation.Plugin{Config: cloudformation.Config{
		Format:      format,
		AssetBucket: cfg.AssetBucket,
		Account:     cfg.Account,
		Region:      cfg.Region,
	}}
	asm, err := plugin.Translate(ctx, root.App)
	if err != nil {
		return errors.Wrapf(err, "could not synthesize with %s", plugin.Name())
	}

	if err := io.OutputTo(log, asm.Files, outDir); err != nil {
		return errors.Wrapf(err, "could not write cloud assembly to %s", outDir)
	}
	log.Info("Wrote cloud assembly", logging.PathField(outDir), zap.Int("files", len(asm.Files)))
	return nil
}
