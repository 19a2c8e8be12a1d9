package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/yairfalse/shotty/internal/executor"
	"github.com/yairfalse/shotty/internal/filter"
)

const day = 24 * time.Hour

// maxAgeDays is the largest --age whose duration fits in time.Duration.
const maxAgeDays = int(math.MaxInt64 / int64(day))

func newInstancesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Commands for instances",
	}
	cmd.AddCommand(
		newInstancesListCmd(a),
		newLifecycleCmd(a, "stop", "Stop EC2 instances", (*executor.Executor).Stop),
		newLifecycleCmd(a, "start", "Start EC2 instances", (*executor.Executor).Start),
		newLifecycleCmd(a, "reboot", "Reboot EC2 instances", (*executor.Executor).Reboot),
		newCreateSnapshotCmd(a),
	)
	return cmd
}

func newInstancesListCmd(a *app) *cobra.Command {
	var sel filter.Selection
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List EC2 instances",
		Example: `  shotty instances list
  shotty instances list --project web
  shotty instances list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exec, err := a.executor(cmd.Context(), false)
			if err != nil {
				return err
			}
			instances, err := exec.ListInstances(cmd.Context(), sel)
			if err != nil {
				return err
			}
			return writeRows(a.stdout, a.flags.output, instances)
		},
	}
	addSelectionFlags(cmd, &sel)
	return cmd
}

type lifecycleFunc func(*executor.Executor, context.Context, filter.Selection, bool) (*executor.Result, error)

func newLifecycleCmd(a *app, name, short string, action lifecycleFunc) *cobra.Command {
	var (
		sel    filter.Selection
		force  bool
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Long: short + `.

Without --project or --instance every instance in the region is
selected, which requires --force.`,
		Example: fmt.Sprintf(`  shotty instances %[1]s --project web
  shotty instances %[1]s --instance i-0123456789abcdef0
  shotty instances %[1]s --force --dry-run`, name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := executor.CheckScope(sel, force); err != nil {
				return err
			}
			exec, err := a.executor(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			result, err := action(exec, cmd.Context(), sel, force)
			if err != nil {
				return err
			}
			return a.writeResult(result)
		},
	}
	addSelectionFlags(cmd, &sel)
	cmd.Flags().BoolVar(&force, "force", false, "Act on every instance when no selection is given")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print what would be done without doing it")
	return cmd
}

func newCreateSnapshotCmd(a *app) *cobra.Command {
	var (
		sel     filter.Selection
		force   bool
		dryRun  bool
		ageDays int
	)
	cmd := &cobra.Command{
		Use:     "create_snapshot",
		Aliases: []string{"create-snapshot", "snapshot"},
		Short:   "Create snapshots of instance volumes",
		Long: `Stop each selected instance, snapshot every attached volume that has
no snapshot in progress, then start the instance again if it was running.

With --age DAYS only volumes whose newest snapshot is older than DAYS
days (or that have none) are snapshotted, and instances where no volume
qualifies are left alone.`,
		Example: `  shotty instances create_snapshot --project web
  shotty instances create_snapshot --project web --age 7
  shotty instances create_snapshot --force --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := executor.SnapshotOptions{Force: force}
			if cmd.Flags().Changed("age") {
				if ageDays < 0 || ageDays > maxAgeDays {
					return fmt.Errorf("--age must be between 0 and %d (got %d)", maxAgeDays, ageDays)
				}
				opts.AgeGated = true
				opts.MaxAge = time.Duration(ageDays) * day
			}
			if err := executor.CheckScope(sel, force); err != nil {
				return err
			}

			exec, err := a.executor(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			result, err := exec.CreateSnapshots(cmd.Context(), sel, opts)
			if err != nil {
				return err
			}
			return a.writeResult(result)
		},
	}
	addSelectionFlags(cmd, &sel)
	cmd.Flags().BoolVar(&force, "force", false, "Act on every instance when no selection is given")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print what would be done without doing it")
	cmd.Flags().IntVar(&ageDays, "age", 0, "Only snapshot volumes whose newest snapshot is older than this many days")
	return cmd
}

// writeResult prints the batch summary in structured modes. Text mode has
// already printed progress lines.
func (a *app) writeResult(result *executor.Result) error {
	if a.flags.output == outputText {
		return nil
	}
	return writeDocument(a.stdout, a.flags.output, result)
}
