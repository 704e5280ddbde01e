package main

import (
	"fmt"

	"github.com/4thel00z/pulse/internal"
	"github.com/spf13/cobra"
)

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queued records and project revisions",
		RunE:  makeStatusRunner(),
	}

	return cmd
}

func makeStatusRunner() func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

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

		activities, revisions, err := store.CountUnsynced(ctx)
		if err != nil {
			return fmt.Errorf("count unsynced: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Unsynced: %d activities, %d revisions\n", activities, revisions)

		if len(cfg.Projects) == 0 {
			return nil
		}

		inspector, err := newInspector(cfg)
		if err != nil {
			return fmt.Errorf("create inspector: %w", err)
		}

		for _, root := range cfg.Projects {
			head, err := inspector.Head(ctx, root)
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no revision\n", root)
				continue
			}
			branch, _ := inspector.Branch(ctx, root)
			if branch != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", root, shortHash(head), branch)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", root, shortHash(head))
			}
		}

		return nil
	}
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
