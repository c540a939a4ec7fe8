package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(opts *cliOptions) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the command catalog whenever the config file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, opts, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "delay before reacting to a config change")
	return cmd
}

func runWatch(ctx context.Context, opts *cliOptions, debounce time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Editors replace files instead of writing in place, so watch the
	// directory and filter on the config name.
	dir := filepath.Dir(opts.configPath)
	target := filepath.Clean(opts.configPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	rebuild := func() {
		bridge, err := openBridge(opts)
		if err != nil {
			opts.logger.Warn("config reload failed", zap.Error(err))
			return
		}
		defer func() { _ = bridge.Close() }()

		entries, err := bridge.BuildSyntax(ctx)
		if err != nil {
			opts.logger.Warn("catalog rebuild failed", zap.Error(err))
			return
		}
		if err := printSyntax(entries, opts.jsonOutput); err != nil {
			opts.logger.Warn("print failed", zap.Error(err))
		}
	}
	rebuild()

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending:
			rebuild()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			opts.logger.Debug("config changed", zap.String("event", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.logger.Warn("watch error", zap.Error(err))
		}
	}
}
