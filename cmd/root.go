package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewCmdRoot creates a new root command
func NewCmdRoot(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kestrel",
		Short: "Kestrel, the check execution agent",
		Long: "Kestrel is an agent that runs checks against monitored assets and\n" +
			"forwards the outcomes to a collector. The latest outcomes are exposed via an API.",
		Version: version,
	}
	return rootCmd
}

// BuildCmd assembles the full command tree
func BuildCmd(version string) *cobra.Command {
	cmd := NewCmdRoot(version)
	cmd.AddCommand(NewCmdRun(version))
	cmd.AddCommand(NewCmdOnce())
	cmd.AddCommand(NewCmdGenDocs(cmd))
	return cmd
}

// Execute builds the cmd tree and executes it
func Execute(version string) {
	if err := BuildCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
