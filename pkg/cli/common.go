package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"

	"github.com/klothoplatform/spa-stack/pkg/closenicely"
	"github.com/klothoplatform/spa-stack/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type CommonConfig struct {
	verbose   bool
	jsonLog   bool
	color     string
	profileTo string
}

var (
	hadWarnings = atomic.NewBool(false)
	hadErrors   = atomic.NewBool(false)
)

func setupProfiling(commonCfg *CommonConfig) (func(), error) {
	if commonCfg.profileTo == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(commonCfg.profileTo), 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	profileF, err := os.OpenFile(commonCfg.profileTo, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile file: %w", err)
	}
	if err := pprof.StartCPUProfile(profileF); err != nil {
		closenicely.OrDebug(profileF)
		return nil, fmt.Errorf("failed to start profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		closenicely.OrDebug(profileF)
	}, nil
}

func (c *CommonConfig) logOpts() logging.LogOpts {
	opts := logging.LogOpts{
		Verbose: c.verbose,
		Color:   c.color,
		DefaultLevels: map[string]zapcore.Level{
			"stack": zap.InfoLevel,
		},
		HadWarnings: hadWarnings,
		HadErrors:   hadErrors,
	}
	if c.jsonLog {
		opts.Encoding = "json"
	}
	return opts
}

// SetupRoot adds the global flags to `root` and installs the logger (and CPU profiler, if requested) before any
// command runs.
func SetupRoot(root *cobra.Command, commonCfg *CommonConfig) {
	flags := root.PersistentFlags()
	flags.BoolVarP(&commonCfg.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.BoolVar(&commonCfg.jsonLog, "json-log", false, "Enable JSON logging")
	flags.StringVar(&commonCfg.color, "color", "auto", "Colorize output (auto, always, never)")
	flags.StringVar(&commonCfg.profileTo, "profiling", "", "Write a CPU profile to file")

	profileClose := func() {}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		zap.ReplaceGlobals(commonCfg.logOpts().NewLogger())

		var err error
		profileClose, err = setupProfiling(commonCfg)
		return err
	}

	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		logging.SyncOrDebug(zap.L())
		profileClose()
	}
}
