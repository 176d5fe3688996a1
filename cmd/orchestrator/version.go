package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/SentientPlayer/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sentient-player %s (%s %s/%s)\n",
			version.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
