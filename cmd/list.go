package cmd

import (
	"fmt"
	"incback/internal/model"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered data paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := store.Load()
		if err != nil {
			return err
		}

		if len(paths) == 0 {
			fmt.Println("no data paths registered")
			return nil
		}

		model.SortDataPaths(paths)

		header := color.New(color.Bold)
		_, _ = header.Printf("%-6s %-5s %-12s %s\n", "VOL", "TYPE", "MODE", "PATH")
		for _, p := range paths {
			fmt.Printf("%-6s %-5s %-12s %s\n", p.Volume, p.Type, p.CopyMode, p.SourcePath)
			if len(p.IgnoreNames) > 0 {
				fmt.Printf("%-25s ignore: %s\n", "", strings.Join(p.IgnoreNames, ", "))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
