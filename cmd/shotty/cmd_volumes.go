package main

import (
	"github.com/spf13/cobra"

	"github.com/yairfalse/shotty/internal/filter"
)

func newVolumesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volumes",
		Short: "Commands for volumes",
	}

	var sel filter.Selection
	list := &cobra.Command{
		Use:   "list",
		Short: "List volumes attached to the selected instances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exec, err := a.executor(cmd.Context(), false)
			if err != nil {
				return err
			}
			volumes, err := exec.ListVolumes(cmd.Context(), sel)
			if err != nil {
				return err
			}
			return writeRows(a.stdout, a.flags.output, volumes)
		},
	}
	addSelectionFlags(list, &sel)

	cmd.AddCommand(list)
	return cmd
}
