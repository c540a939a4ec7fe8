package main

import (
	"fmt"

	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"mcpbridge/internal/app"
	"mcpbridge/internal/infra/config"
	"mcpbridge/internal/infra/transport"
)

const version = "0.1.0"

type cliOptions struct {
	configPath   string
	snapshotPath string
	jsonOutput   bool
	verbose      bool
	logger       *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:     "mcpbridgectl",
		Short:   "Inspect and invoke tools exposed by configured MCP servers",
		Version: version,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := app.NewLogger(app.LoggingConfig{
				Verbose: opts.verbose,
				JSON:    opts.jsonOutput,
			})
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = opts.logger.Sync()
		},
	}

	root.PersistentFlags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "bridge.yaml", "path to the bridge config file")
	root.PersistentFlags().StringVar(&opts.snapshotPath, "snapshot", "", "path to the discovery snapshot db (disabled when empty)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newToolsCmd(&opts),
		newCallCmd(&opts),
		newWatchCmd(&opts),
	)

	return root
}

// openBridge loads the config file and wires a bridge around it.
func openBridge(opts *cliOptions) (*app.Bridge, error) {
	file, err := config.NewLoader(opts.logger).Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	return app.NewBridge(app.BridgeConfig{
		Store:        file,
		Dialer:       transport.NewDialer(transport.DialerOptions{Logger: opts.logger, ClientVersion: version}),
		Logger:       opts.logger,
		SnapshotPath: opts.snapshotPath,
	})
}
