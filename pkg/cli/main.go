package cli

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type SpaMain struct {
	Version string
}

var commonCfg CommonConfig

// NewRootCommand builds the `spa` command tree.
func (m SpaMain) NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "spa",
		Short:         "Synthesize the infrastructure for a static site served by CloudFront",
		Version:       m.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	SetupRoot(root, &commonCfg)

	root.AddCommand(
		newSynthCommand(),
		newGraphCommand(),
		newDiffCommand(),
		newInitCommand(),
	)
	return root
}

func (m SpaMain) Main() {
	root := m.NewRootCommand()
	err := root.Execute()
	if err != nil {
		ErrorHandler{Verbose: commonCfg.verbose}.PrintErr(zap.L(), err)
		zap.L().Sync() //nolint:errcheck
		os.Exit(1)
	}
	if hadErrors.Load() {
		os.Exit(1)
	}
}
