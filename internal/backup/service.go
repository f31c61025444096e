package backup

import (
	"context"
	"errors"
	"fmt"
	"incback/internal/logger"
	"incback/internal/model"
	"incback/internal/prior"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

type RunOptions struct {
	// DestDir is the parent of the dated backup directories.
	DestDir string
	// PriorPaths are explicit prior backups. When empty, priors are
	// discovered under DestDir.
	PriorPaths []string
	Now        time.Time
	Options
}

// Run backs up the registered data paths into a fresh dated directory under
// DestDir and returns the result together with that directory.
func Run(ctx context.Context, dataPaths []model.DataPath, opts RunOptions) (model.Result, string, error) {
	if opts.DestDir == "" {
		return model.Result{}, "", errors.New("backup destination is required")
	}

	dest, err := filepath.Abs(opts.DestDir)
	if err != nil {
		return model.Result{}, "", fmt.Errorf("invalid destination %s: %w", opts.DestDir, err)
	}

	existing := make([]model.DataPath, 0, len(dataPaths))
	for _, dp := range dataPaths {
		if _, err := os.Stat(dp.SourcePath); err != nil {
			logger.Log.Warn("registered source missing, skipping",
				zap.String("path", dp.SourcePath),
				zap.Error(err))
			continue
		}
		existing = append(existing, dp)
	}

	var priors []model.PriorBackupPath
	if len(opts.PriorPaths) > 0 {
		priors, err = prior.ResolveAll(opts.PriorPaths)
	} else {
		priors, err = prior.Discover(dest)
	}
	if err != nil {
		return model.Result{}, "", fmt.Errorf("failed to resolve prior backups: %w", err)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	target, err := prior.NewBackupDir(dest, now)
	if err != nil {
		return model.Result{}, "", fmt.Errorf("failed to name backup directory: %w", err)
	}

	logger.Log.Info("starting backup",
		zap.String("target", target),
		zap.Int("dataPaths", len(existing)),
		zap.Int("priors", len(priors)))

	cOpts := opts.Options
	cOpts.Exclude = append([]string{dest}, cOpts.Exclude...)

	c := NewController(target, existing, priors, cOpts)
	return c.Start(ctx), target, nil
}
