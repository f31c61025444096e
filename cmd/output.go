package cmd

import (
	"fmt"
	"incback/internal/logger"
	"incback/internal/model"
	"incback/internal/repository"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.uber.org/zap"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	skipMark = color.New(color.FgYellow).Sprint("-")
	failMark = color.New(color.FgRed).Sprint("✗")
)

func outcomeMark(o model.Outcome) string {
	switch o {
	case model.OutcomeSuccess:
		return okMark
	case model.OutcomeEmpty:
		return skipMark
	default:
		return failMark
	}
}

// report prints the outcome of a run and records it in the history.
func report(kind model.RunKind, target string, res model.Result, startedAt time.Time) error {
	if _, err := repository.NewHistoryRepository().Save(kind, target, res, startedAt); err != nil {
		logger.Log.Warn("failed to save history",
			zap.Error(err))
	}

	fmt.Printf("%s %s %s\n", outcomeMark(res.Outcome), kind, res)
	if res.Outcome == model.OutcomeSuccess {
		fmt.Printf("  target:   %s\n", target)
		fmt.Printf("  archived: %d files, %s\n", res.Stats.Archived, humanize.IBytes(uint64(res.Stats.Bytes)))
		fmt.Printf("  skipped:  %d, failed: %d\n", res.Stats.Skipped, res.Stats.Failed)
		fmt.Printf("  took:     %s\n", time.Since(startedAt).Round(time.Millisecond))
	}

	if res.Outcome == model.OutcomeError {
		return fmt.Errorf("%s failed: %s", kind, res.Message)
	}

	return nil
}
