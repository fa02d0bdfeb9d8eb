package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/objectfs/gitreefs/internal/applog"
	"github.com/objectfs/gitreefs/internal/config"
	"github.com/objectfs/gitreefs/internal/fusefs"
	"github.com/objectfs/gitreefs/internal/gitdb"
	"github.com/objectfs/gitreefs/internal/inode"
)

var mountCmd = &cobra.Command{
	Use:   "mount [mountpoint]",
	Short: "Mount a Git repository's object database",
	Long:  `Mount the object database of the repository at --repo at the given mountpoint.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMount,
}

func init() {
	rootCmd.AddCommand(mountCmd)
	mountCmd.Flags().String("repo", "", "path to the Git repository (default: $GITREEFS_REPO or config file)")
	mountCmd.Flags().Bool("allow-other", false, "allow access by users other than the one who mounted the filesystem")
	mountCmd.Flags().String("state-file", "", "path to persist/restore the inode collision table across restarts")
	mountCmd.Flags().String("takeover-fd", "", "hand off a pre-opened kernel fd from a prior process (unsupported)")
}

func runMount(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if repo, _ := cmd.Flags().GetString("repo"); repo != "" {
		cfg.Repo = repo
	}
	if cfg.Repo == "" {
		return fmt.Errorf("repository path required: gitreefs mount --repo /path/to/repo /path/to/mount")
	}

	mountpoint := cfg.Mount.DefaultPath
	if len(args) > 0 {
		mountpoint = args[0]
	}
	if mountpoint == "" {
		return fmt.Errorf("mountpoint required: gitreefs mount /path/to/mount")
	}

	if takeoverFD, _ := cmd.Flags().GetString("takeover-fd"); takeoverFD != "" {
		return fmt.Errorf("--takeover-fd is not supported by this build: live fd handoff requires taking over a pre-opened kernel session, which the FUSE library this filesystem is built on does not expose")
	}

	if allowOther, _ := cmd.Flags().GetBool("allow-other"); allowOther {
		cfg.Mount.AllowOther = true
	}
	if stateFile, _ := cmd.Flags().GetString("state-file"); stateFile != "" {
		cfg.Mount.StateFile = stateFile
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if d, _ := cmd.Root().PersistentFlags().GetBool("debug"); d {
		debug = true
	}
	level := cfg.Log.Level
	if envLevel := applog.LevelFromEnv(os.Getenv); envLevel != "" {
		level = envLevel
	}
	if debug {
		level = "debug"
	}
	log, err := applog.New(os.Stderr, level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return fmt.Errorf("failed to create mountpoint: %w", err)
	}

	db, err := gitdb.Open(cfg.Repo)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}

	table := inode.NewTable()
	if cfg.Mount.StateFile != "" {
		if data, err := os.ReadFile(cfg.Mount.StateFile); err == nil {
			if err := table.RestoreSnapshot(data); err != nil {
				log.Warn("failed to restore inode table snapshot, starting fresh")
			}
		}
	}

	gtfs := fusefs.NewGitTreeFS(db, table, log)

	log.Info("mounting git object database")
	server, err := fusefs.MountFS(mountpoint, gtfs, fusefs.MountOptions{
		AllowOther: cfg.Mount.AllowOther,
		Debug:      debug,
		FsName:     cfg.Repo,
	})
	if err != nil {
		gtfs.Close()
		return fmt.Errorf("failed to mount: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("unmounting")
		server.Unmount()
	}()

	fmt.Printf("Mounted %s at %s. Press Ctrl+C to unmount.\n", cfg.Repo, mountpoint)
	server.Wait()

	if cfg.Mount.StateFile != "" {
		data, err := gtfs.Table().Snapshot()
		if err != nil {
			log.Warn("failed to serialize inode table snapshot")
		} else if err := os.WriteFile(cfg.Mount.StateFile, data, 0o644); err != nil {
			log.Warn("failed to write inode table snapshot")
		}
	}

	gtfs.Close()
	return nil
}
