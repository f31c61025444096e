package cmd

import (
	"fmt"
	"incback/internal/logger"
	"incback/internal/model"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	addForce     bool
	addAllOrNone bool
)

var addCmd = &cobra.Command{
	Use:   "add [path] [ignore...]",
	Short: "Register a file or directory for backup",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dp, err := store.NewDataPath(args[0], copyModeFlag(addForce, addAllOrNone), args[1:])
		if err != nil {
			return err
		}

		if err := store.Add(dp); err != nil {
			return err
		}

		logger.Log.Info("data path added",
			zap.String("path", dp.SourcePath),
			zap.String("volume", dp.Volume),
			zap.Stringer("mode", dp.CopyMode))

		fmt.Printf("%s added %s %s [%s]\n", okMark, dp.Type, dp.SourcePath, dp.CopyMode)
		return nil
	},
}

func copyModeFlag(force, allOrNone bool) model.CopyMode {
	switch {
	case force:
		return model.CopyForce
	case allOrNone:
		return model.CopyAllOrNone
	default:
		return model.CopyNone
	}
}

func init() {
	addCmd.Flags().BoolVarP(&addForce, "force", "c", false, "archive every file on each backup")
	addCmd.Flags().BoolVarP(&addAllOrNone, "all-or-none", "a", false, "archive a whole directory when any file in it changed")
	addCmd.MarkFlagsMutuallyExclusive("force", "all-or-none")
	rootCmd.AddCommand(addCmd)
}
