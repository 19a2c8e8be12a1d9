package main

import (
	"github.com/spf13/cobra"

	"github.com/yairfalse/shotty/internal/filter"
)

func newSnapshotsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshots",
		Short: "Commands for snapshots",
	}

	var (
		sel     filter.Selection
		listAll bool
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots of the selected instances' volumes",
		Long: `List snapshots of every volume attached to the selected instances.

By default each volume's listing ends at the first completed snapshot
the provider returns. Use --all to list every snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exec, err := a.executor(cmd.Context(), false)
			if err != nil {
				return err
			}
			snapshots, err := exec.ListSnapshots(cmd.Context(), sel, listAll)
			if err != nil {
				return err
			}
			return writeRows(a.stdout, a.flags.output, snapshots)
		},
	}
	addSelectionFlags(list, &sel)
	list.Flags().BoolVar(&listAll, "all", false, "List all snapshots, not just the most recent")

	cmd.AddCommand(list)
	return cmd
}
