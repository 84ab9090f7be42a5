package cli

import (
	"os"

	"github.com/klothoplatform/spa-stack/pkg/closenicely"
	"github.com/klothoplatform/spa-stack/pkg/construct"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/klothoplatform/spa-stack/pkg/spa"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGraphCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the resource graph of the site as YAML",
		Args:  cobra.NoArgs,
	}
	flags := cmd.Flags()
	site := addSiteFlags(flags)
	flags.StringVarP(&output, "output", "o", "", "File to write to instead of stdout")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := site.load()
		if err != nil {
			return err
		}
		ctx := logging.WithLogger(cmd.Context(), zap.L())
		root, err := spa.NewRoot(ctx, cfg, spa.RootProps{})
		if err != nil {
			return errors.Wrap(err, "could not compose site")
		}

		if output == "" {
			return construct.GraphToYAML(root.App.Resources, cmd.OutOrStdout())
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer closenicely.OrDebug(f)
		return construct.GraphToYAML(root.App.Resources, f)
	}
	return cmd
}
