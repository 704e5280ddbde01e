package main

import (
	"fmt"
	"time"

	"github.com/4thel00z/pulse/internal"
	"github.com/spf13/cobra"
)

func NewTrackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Track editor activity from stdin",
		Long: `Read line-delimited JSON editor events from stdin and track them
until EOF or interrupt. Each line looks like:

  {"type":"change","file":"/abs/path.go","language":"go","workspace":"/abs"}

Records are debounced, stamped with the active git revision, queued
locally, and pushed to the collector every sync interval.`,
		RunE: makeTrackRunner(),
	}

	return cmd
}

func makeTrackRunner() func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		logger := newLogger(cmd)

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := internal.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, err := internal.OpenStore(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()

		inspector, err := newInspector(cfg)
		if err != nil {
			return fmt.Errorf("create inspector: %w", err)
		}

		status := internal.NewLogStatusSink(logger)
		correlator := internal.NewCorrelator(store, inspector, logger)
		collector := internal.NewHTTPCollector(cfg.Collector.URL, cfg.Collector.Token, nil)

		batch := internal.NewPendingBatch()
		syncer := internal.NewSyncer(batch, store, collector, internal.SyncerOptions{
			Interval: time.Duration(cfg.SyncIntervalMS) * time.Millisecond,
			Status:   status,
			Logger:   logger,
		})
		source := internal.NewJSONLEventSource(cmd.InOrStdin(), logger)
		tracker := internal.NewTracker(batch, correlator, inspector, syncer, internal.TrackerOptions{
			EditorID: cfg.EditorID,
			Debounce: time.Duration(cfg.DebounceMS) * time.Millisecond,
			MaxIdle:  time.Duration(cfg.MaxIdleMS) * time.Millisecond,
			Source:   source,
			Status:   status,
			Logger:   logger,
		})

		watcher, err := internal.NewRevisionWatcher(correlator, logger)
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		for _, root := range cfg.Projects {
			correlator.InitializeProject(ctx, root)
			if err := watcher.Watch(root); err != nil {
				logger.Warn("skip project watch", "project", root, "error", err)
			}
		}
		go watcher.Run(ctx)

		tracker.Start(ctx)
		defer tracker.Stop()

		fmt.Fprintf(cmd.ErrOrStderr(), "Tracking editor events on stdin...\n")

		if err := source.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("read events: %w", err)
		}
		return nil
	}
}

func newInspector(cfg *internal.Config) (internal.Inspector, error) {
	if cfg.Inspector == "git" {
		return internal.NewGitCLIInspector()
	}
	return internal.NewGitInspector(), nil
}
