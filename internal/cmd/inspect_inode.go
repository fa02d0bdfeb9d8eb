package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/objectfs/gitreefs/internal/config"
	"github.com/objectfs/gitreefs/internal/fusefs"
	"github.com/objectfs/gitreefs/internal/gitdb"
)

var inspectInodeCmd = &cobra.Command{
	Use:   "inspect-inode <number>",
	Short: "Decode a kernel inode number into its Git object identity",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspectInode,
}

func init() {
	rootCmd.AddCommand(inspectInodeCmd)
	inspectInodeCmd.Flags().String("repo", "", "path to the Git repository (default: $GITREEFS_REPO or config file)")
}

func runInspectInode(cmd *cobra.Command, args []string) error {
	ino, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid inode number %q: %w", args[0], err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if repo, _ := cmd.Flags().GetString("repo"); repo != "" {
		cfg.Repo = repo
	}
	if cfg.Repo == "" {
		return fmt.Errorf("repository path required: gitreefs inspect-inode --repo /path/to/repo %d", ino)
	}

	db, err := gitdb.Open(cfg.Repo)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	defer db.Close()

	hexPrefix, tag, ns, isSyntheticRef := fusefs.DecodeInode(db, ino)
	if isSyntheticRef {
		fmt.Printf("inode %d: synthetic ref symlink, namespace=%d\n", ino, ns)
		return nil
	}
	fmt.Printf("inode %d: kind=%s hex-prefix=%s\n", ino, tag, hexPrefix)
	return nil
}
