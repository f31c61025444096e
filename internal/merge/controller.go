package merge

import (
	"context"
	"incback/internal/archive"
	"incback/internal/logger"
	"incback/internal/model"
	"os"
	"path/filepath"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Method archive.Method
}

// Controller folds a chain of prior backups into the newest one and removes
// the older directories.
type Controller struct {
	priors []model.PriorBackupPath
	opts   Options
}

func NewController(priors []model.PriorBackupPath, opts Options) *Controller {
	if opts.Method == "" {
		opts.Method = archive.MethodDeflate
	}

	sorted := slices.Clone(priors)
	model.SortNewestFirst(sorted)

	return &Controller{
		priors: sorted,
		opts:   opts,
	}
}

// TargetDir is the backup directory every other prior is merged into.
func (c *Controller) TargetDir() string {
	if len(c.priors) == 0 {
		return ""
	}
	return c.priors[0].FullPath
}

func (c *Controller) Start(ctx context.Context) model.Result {
	if len(c.priors) < 2 {
		return model.Empty("at least two prior backups are required to merge")
	}

	volumes := c.volumes()
	if len(volumes) == 0 {
		return model.Empty("no archives found in prior backups")
	}

	newest := c.priors[0]
	targets := make([]*Target, 0, len(volumes))
	for _, v := range volumes {
		t, err := OpenTarget(newest.FullPath, v, c.opts.Method)
		if err != nil {
			abortAll(targets)
			return model.Errorf("failed to open merge target for volume %s: %v", v, err)
		}
		targets = append(targets, t)
	}

	procs := make([]*process, len(targets))
	var g errgroup.Group
	for i, t := range targets {
		procs[i] = &process{target: t, older: c.priors[1:]}
		g.Go(func() error {
			return procs[i].run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		abortAll(targets)
		logger.Log.Error("merge failed",
			zap.String("target", newest.FullPath),
			zap.Error(err))
		return model.Errorf("%v", err)
	}

	var closeFailed bool
	for _, t := range targets {
		if err := t.Close(); err != nil {
			logger.Log.Error("failed to close merge target",
				zap.String("volume", t.Volume),
				zap.Error(err))
			closeFailed = true
		}
	}

	var stats model.Stats
	for _, p := range procs {
		stats.Archived += p.stats.Archived
		stats.Skipped += p.stats.Skipped
		stats.Failed += p.stats.Failed
		stats.Bytes += p.stats.Bytes
	}

	if closeFailed {
		return model.Result{Outcome: model.OutcomeError, Message: "failed to close merge targets, older backups kept", Stats: stats}
	}

	for _, p := range c.priors[1:] {
		if err := os.RemoveAll(p.FullPath); err != nil {
			logger.Log.Warn("failed to remove merged backup",
				zap.String("path", p.FullPath),
				zap.Error(err))
			continue
		}
		logger.Log.Debug("removed merged backup",
			zap.String("path", p.FullPath))
	}

	logger.Log.Info("merge complete",
		zap.String("target", newest.FullPath),
		zap.Int("volumes", len(volumes)),
		zap.Int64("copied", stats.Archived))

	return model.Success(stats)
}

// volumes lists every volume with an archive in any prior backup.
func (c *Controller) volumes() []string {
	var volumes []string
	for _, p := range c.priors {
		matches, err := filepath.Glob(filepath.Join(p.FullPath, "*.zip"))
		if err != nil {
			continue
		}

		for _, m := range matches {
			v, ok := archive.VolumeOf(filepath.Base(m))
			if ok && model.ValidVolumeKey(v) && !slices.Contains(volumes, v) {
				volumes = append(volumes, v)
			}
		}
	}

	slices.Sort(volumes)
	return volumes
}

func abortAll(targets []*Target) {
	for _, t := range targets {
		t.Abort()
	}
}
