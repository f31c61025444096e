package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	updateForce     bool
	updateAllOrNone bool
	ignoreAdd       bool
	ignoreRemove    bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change the settings of a data path",
}

var updateModeCmd = &cobra.Command{
	Use:   "mode [path]",
	Short: "Change the copy mode; no flag resets it to incremental",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		mode := copyModeFlag(updateForce, updateAllOrNone)
		if err := store.UpdateCopyMode(path, mode); err != nil {
			return err
		}

		fmt.Printf("%s %s is now %s\n", okMark, path, mode)
		return nil
	},
}

var updateIgnoreCmd = &cobra.Command{
	Use:   "ignore [path] [name...]",
	Short: "Add or remove ignored names of a directory",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ignoreAdd == ignoreRemove {
			return errors.New("exactly one of -a or -r is required")
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		if ignoreAdd {
			err = store.AddIgnore(path, args[1:]...)
		} else {
			err = store.RemoveIgnore(path, args[1:]...)
		}
		if err != nil {
			return err
		}

		fmt.Printf("%s updated ignore list of %s\n", okMark, path)
		return nil
	},
}

func init() {
	updateModeCmd.Flags().BoolVarP(&updateForce, "force", "c", false, "archive every file on each backup")
	updateModeCmd.Flags().BoolVarP(&updateAllOrNone, "all-or-none", "a", false, "archive a whole directory when any file in it changed")
	updateModeCmd.MarkFlagsMutuallyExclusive("force", "all-or-none")

	updateIgnoreCmd.Flags().BoolVarP(&ignoreAdd, "add", "a", false, "add names to the ignore list")
	updateIgnoreCmd.Flags().BoolVarP(&ignoreRemove, "remove", "r", false, "remove names from the ignore list")

	updateCmd.AddCommand(updateModeCmd, updateIgnoreCmd)
	rootCmd.AddCommand(updateCmd)
}
