package main

import (
	"github.com/spf13/cobra"
)

func newToolsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Discover configured servers and list the published commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bridge, err := openBridge(opts)
			if err != nil {
				return err
			}
			defer func() { _ = bridge.Close() }()

			entries, err := bridge.BuildSyntax(cmd.Context())
			if err != nil {
				return err
			}
			return printSyntax(entries, opts.jsonOutput)
		},
	}
}
