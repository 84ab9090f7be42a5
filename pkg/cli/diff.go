package cli

import (
	"github.com/klothoplatform/spa-stack/pkg/diff"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrChanges is returned by `diff --exit-code` when the graphs differ.
var ErrChanges = errors.New("graphs differ")

func newDiffCommand() *cobra.Command {
	var exitCode bool
	cmd := &cobra.Command{
		Use:   "diff <old graph.yaml> <new graph.yaml>",
		Short: "Show the resource changes between two synthesized graphs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := diff.Files(args[0], args[1])
			if err != nil {
				return errors.Wrap(err, "could not diff graphs")
			}
			if _, err := result.WriteTo(cmd.OutOrStdout()); err != nil {
				return err
			}
			zap.L().Debug("Diffed graphs",
				zap.Int("resources", len(result.Resources)),
				zap.Int("edges", len(result.Edges)),
			)
			if exitCode && !result.IsEmpty() {
				return ErrChanges
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, "Exit with a non-zero status when there are changes")
	return cmd
}
