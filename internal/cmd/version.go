package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including library and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !extended {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, versionInfo.Version)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, versionInfo.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", versionInfo.Commit)
		fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", versionInfo.BuildDate)
		fmt.Fprintf(cmd.OutOrStdout(), "Go: %s\n", runtime.Version())

		version := crucible.GetVersion()
		fmt.Fprintf(cmd.OutOrStdout(), "\nGofulmen: %s\n", version.Gofulmen)
		fmt.Fprintf(cmd.OutOrStdout(), "Crucible: %s\n", version.Crucible)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
	rootCmd.AddCommand(versionCmd)
}
