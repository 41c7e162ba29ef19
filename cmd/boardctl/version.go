package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/lifeboard/internal/boardfs"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("boardctl %s\n", version)
		fmt.Printf("  engine: %d.%d\n", boardfs.VersionMajor, boardfs.VersionMinor)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
