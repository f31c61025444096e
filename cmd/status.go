package cmd

import (
	"encoding/json"
	"fmt"
	"incback/internal/daemon"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View status from a running status server",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("status server not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var snap daemon.StatusSnapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		fmt.Printf("uptime:     %s\n", snap.Uptime)
		fmt.Printf("registry:   %s (%d data paths)\n", snap.Registry, snap.DataPaths)
		for v, n := range snap.Volumes {
			fmt.Printf("  volume %-6s %d\n", v, n)
		}
		fmt.Printf("runs:       %d total, %d ok, %d failed\n", snap.Runs.Total, snap.Runs.Success, snap.Runs.Failed)
		fmt.Printf("archived:   %d files, %s\n", snap.Runs.Archived, humanize.IBytes(uint64(snap.Runs.Bytes)))

		if snap.LastRun != nil {
			fmt.Printf("last run:   %s %s %s (%s)\n",
				outcomeMark(snap.LastRun.Outcome),
				snap.LastRun.Kind,
				snap.LastRun.TargetDir,
				humanize.Time(snap.LastRun.FinishedAt))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
