package cmd

import (
	"fmt"
	"incback/internal/repository"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyN int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View backup and merge history",
	RunE: func(cmd *cobra.Command, args []string) error {
		histories, err := repository.NewHistoryRepository().GetRecent(historyN)
		if err != nil {
			return err
		}

		if len(histories) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		for _, h := range histories {
			fmt.Printf("%s [%s] %-6s %5d files %9s  %s\n",
				outcomeMark(h.Outcome),
				h.StartedAt.Format("2006-01-02 15:04:05"),
				h.Kind,
				h.Archived,
				humanize.IBytes(uint64(h.Bytes)),
				h.TargetDir,
			)
			if h.ErrMsg != "" {
				fmt.Printf("    %s\n", h.ErrMsg)
			}
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyN, "number", "n", 20, "number of history entries to show")
	rootCmd.AddCommand(historyCmd)
}
