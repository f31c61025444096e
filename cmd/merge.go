package cmd

import (
	"context"
	"errors"
	"incback/internal/archive"
	"incback/internal/merge"
	"incback/internal/model"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [destDir | prior prior...]",
	Short: "Fold prior backups into the newest one and delete the rest",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if cfg.BackupDir == "" {
				return errors.New("backups required: pass destDir or set backup_dir")
			}
			args = []string{cfg.BackupDir}
		}

		method, err := archive.ParseMethod(cfg.Compression)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		startedAt := time.Now()
		res, target, err := merge.Run(ctx, args, merge.Options{Method: method})
		if err != nil {
			return err
		}

		return report(model.RunMerge, target, res, startedAt)
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}
