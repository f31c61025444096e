package cmd

import (
	"context"
	"errors"
	"incback/internal/archive"
	"incback/internal/backup"
	"incback/internal/model"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup [destDir] [prior...]",
	Short: "Back up every registered data path into a new dated directory",
	Long: "Back up every registered data path into destDir/Backup_<M>_<D>_<YYYY>. " +
		"Files already held by a prior backup are skipped. Priors are discovered " +
		"under destDir unless given explicitly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dest := cfg.BackupDir
		var priors []string
		if len(args) > 0 {
			dest, priors = args[0], args[1:]
		}
		if dest == "" {
			return errors.New("destination required: pass destDir or set backup_dir")
		}

		method, err := archive.ParseMethod(cfg.Compression)
		if err != nil {
			return err
		}

		paths, err := store.Load()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		startedAt := time.Now()
		res, target, err := backup.Run(ctx, paths, backup.RunOptions{
			DestDir:    dest,
			PriorPaths: priors,
			Now:        startedAt,
			Options: backup.Options{
				Method:           method,
				WorkersPerVolume: cfg.WorkersPerVolume,
				QueueSize:        cfg.QueueSize,
				IgnorePatterns:   cfg.IgnoreList,
				Resolver:         resolver,
			},
		})
		if err != nil {
			return err
		}

		return report(model.RunBackup, target, res, startedAt)
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
