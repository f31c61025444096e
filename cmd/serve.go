package cmd

import (
	"context"
	"incback/internal/daemon"
	"incback/internal/logger"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only status API",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := daemon.NewServer(store, cfg.BackupDir, cfg.DaemonPort)
		srv.Start()

		logger.Log.Info("incback status server ready",
			zap.Int("port", cfg.DaemonPort),
			zap.String("registry", store.Path()))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigCh:
		case <-srv.StopCh():
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Stop(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
