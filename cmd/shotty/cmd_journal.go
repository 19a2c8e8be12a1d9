package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/shotty/internal/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the record of actions shotty has taken",
	}
	cmd.AddCommand(newJournalListCmd(a), newJournalPruneCmd(a))
	return cmd
}

func newJournalListCmd(a *app) *cobra.Command {
	var since time.Duration
	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List journal entries",
		Example: `  shotty journal list --since 24h`,
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			var cutoff time.Time
			if since > 0 {
				cutoff = time.Now().Add(-since)
			}

			var entries []journal.Entry
			err := journal.Replay(a.cfg.Journal.Dir, cutoff, func(e *journal.Entry) error {
				entries = append(entries, *e)
				return nil
			})
			if err != nil {
				return err
			}
			return writeRows(a.stdout, a.flags.output, entries)
		},
	}
	cmd.Flags().DurationVar(&since, "since", 0, "Only entries newer than this (e.g. 24h)")
	return cmd
}

func newJournalPruneCmd(a *app) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old journal files",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive (got %v)", olderThan)
			}
			removed, err := journal.Prune(a.cfg.Journal.Dir, time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			for _, path := range removed {
				fmt.Fprintf(a.stdout, "Removed %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove files last written before this long ago")
	return cmd
}
