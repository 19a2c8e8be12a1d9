package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yairfalse/shotty/internal/filter"
)

var version = "0.1.0"

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shotty",
		Short: "Manage EC2 instances, volumes and snapshots",
		Long: `shotty - EC2 snapshot manager

Lists instances, volumes and snapshots, starts, stops and reboots
instances, and takes crash-consistent snapshots by stopping an
instance, snapshotting its volumes and starting it again.

Instances are selected by their Project tag or by id.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetVersionTemplate(`shotty {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.configPath, "config", "", "Config file (default ~/.config/shotty/config.toml)")
	flags.StringVar(&a.flags.profile, "profile", "", "AWS profile (default from config, then \"default\")")
	flags.StringVar(&a.flags.region, "region", "", "AWS region (default from profile)")
	flags.BoolVar(&a.flags.debug, "debug", false, "Enable debug logging")
	flags.StringVarP(&a.flags.output, "output", "o", outputText, "Output format: text, json, yaml")
	flags.StringVar(&a.flags.logFormat, "log-format", "", "Log format: console, json")

	rootCmd.AddCommand(
		newInstancesCmd(a),
		newVolumesCmd(a),
		newSnapshotsCmd(a),
		newJournalCmd(a),
	)
	return rootCmd
}

// addSelectionFlags binds the instance selection flags shared by every
// resource command.
func addSelectionFlags(cmd *cobra.Command, sel *filter.Selection) {
	cmd.Flags().StringVar(&sel.Project, "project", "", "Only instances for project (tag Project:<name>)")
	cmd.Flags().StringVar(&sel.InstanceID, "instance", "", "Only this instance id (takes precedence over --project)")
}

func validateOutput(format string) error {
	switch format {
	case outputText, outputJSON, outputYAML:
		return nil
	}
	return fmt.Errorf("invalid output format: %s (must be one of: text, json, yaml)", format)
}
