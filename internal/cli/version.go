package cli

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags "-X ...cli.version=".
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ocrdocth version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("ocrdocth", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
