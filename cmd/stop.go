package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Ask a running status server to shut down",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Post(daemonURL("/stop"), "application/json", nil)
		if err != nil {
			return fmt.Errorf("status server not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status server refused to stop: %s", resp.Status)
		}

		var reply struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
			return fmt.Errorf("failed to decode stop response: %w", err)
		}

		fmt.Printf("%s status server on port %d: %s\n", okMark, cfg.DaemonPort, reply.Status)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stopCmd)
}
