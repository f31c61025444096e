package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [path]",
	Short: "Unregister a data path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}

		dp, err := store.Remove(path)
		if err != nil {
			return err
		}

		fmt.Printf("%s removed %s\n", okMark, dp.SourcePath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
