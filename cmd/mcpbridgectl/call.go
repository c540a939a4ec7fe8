package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mcpbridge/internal/domain"
)

func newCallCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "call <command> [key=value ...]",
		Short: "Invoke one published command with key=value parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			bridge, err := openBridge(opts)
			if err != nil {
				return err
			}
			defer func() { _ = bridge.Close() }()

			// Discovery has to run first so the command is published.
			if _, err := bridge.BuildSyntax(cmd.Context()); err != nil {
				return err
			}

			results, err := bridge.Execute(cmd.Context(), []domain.CallRequest{
				{ID: "1", Command: args[0], Params: params},
			})
			if err != nil {
				return err
			}
			if err := printResults(results, opts.jsonOutput); err != nil {
				return err
			}
			for _, result := range results {
				if result.Failed() {
					return exitSilent(1)
				}
			}
			return nil
		},
	}
}

// parseParams turns key=value arguments into a parameter map. Values
// are passed through as strings; the bridge coerces them against the
// tool's schema.
func parseParams(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", arg)
		}
		params[key] = value
	}
	return params, nil
}
