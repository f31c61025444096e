package cmd

import (
	"fmt"
	"incback/internal/config"
	"incback/internal/db"
	"incback/internal/logger"
	"incback/internal/model"
	"incback/internal/registry"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	resolver *model.VolumeResolver
	store    *registry.Store
	debug    bool
)

var rootCmd = &cobra.Command{
	Use:          "incback",
	Short:        "An incremental file backup tool",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		resolver, err = model.NewVolumeResolver(cfg.Volumes)
		if err != nil {
			return fmt.Errorf("invalid volumes config: %w", err)
		}
		store = registry.NewStore(cfg.RegistryPath, resolver)

		dbCmds := map[string]bool{
			"backup": true, "merge": true,
			"history": true, "serve": true,
		}
		if dbCmds[cmd.Name()] {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = db.Close()
		logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
