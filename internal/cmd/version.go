package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fulmenhq/gofulmen/appidentity"
	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for full details including Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		writeVersion(cmd.OutOrStdout(), GetAppIdentity(), extended)
		return nil
	},
}

func writeVersion(w io.Writer, identity *appidentity.Identity, extended bool) {
	name := "pharmaintel"
	if identity != nil && identity.BinaryName != "" {
		name = identity.BinaryName
	}
	fmt.Fprintf(w, "%s %s\n", name, versionInfo.Version)
	if !extended {
		return
	}

	if identity != nil && identity.Description != "" {
		fmt.Fprintf(w, "%s (%s)\n", identity.Description, identity.Vendor)
	}
	fmt.Fprintf(w, "Commit: %s\n", versionInfo.Commit)
	fmt.Fprintf(w, "Built: %s\n", versionInfo.BuildDate)
	fmt.Fprintf(w, "Go: %s\n\n", runtime.Version())

	version := crucible.GetVersion()
	fmt.Fprintf(w, "Gofulmen: %s\n", version.Gofulmen)
	fmt.Fprintf(w, "Crucible: %s\n", version.Crucible)
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
