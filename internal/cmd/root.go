package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gitreefs",
	Short: "Mount a Git object database as a read-only filesystem",
	Long:  `gitreefs exposes a Git repository's object database as a read-only FUSE filesystem: commits, branches, tags, and HEAD all resolve to browsable trees.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (not read: configuration always comes from $XDG_CONFIG_HOME/gitreefs/config.yaml or ~/.config/gitreefs/config.yaml)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "enable debug logging")
}
