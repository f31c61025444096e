package backup

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

const (
	DefaultWorkersPerVolume = 2
	DefaultQueueSize        = 256
)

type Options struct {
	Method           archive.Method
	WorkersPerVolume int
	QueueSize        int
	// IgnorePatterns are glob patterns applied to every entry's base name.
	IgnorePatterns []string
	Resolver       *model.VolumeResolver
	// Exclude lists directories never walked, such as the backup destination.
	Exclude []string
}

func (o Options) withDefaults() Options {
	if o.Method == "" {
		o.Method = archive.MethodDeflate
	}
	if o.WorkersPerVolume <= 0 {
		o.WorkersPerVolume = DefaultWorkersPerVolume
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}

	return o
}

// Controller runs one backup into targetDir.
type Controller struct {
	targetDir string
	dataPaths []model.DataPath
	priors    []model.PriorBackupPath
	volumes   []string
	opts      Options
}

func NewController(targetDir string, dataPaths []model.DataPath, priors []model.PriorBackupPath, opts Options) *Controller {
	opts = opts.withDefaults()

	sorted := slices.Clone(priors)
	model.SortNewestFirst(sorted)

	paths := slices.Clone(dataPaths)
	opts.Resolver.Apply(paths)

	var volumes []string
	for _, dp := range paths {
		if !slices.Contains(volumes, dp.Volume) {
			volumes = append(volumes, dp.Volume)
		}
	}
	slices.Sort(volumes)

	return &Controller{
		targetDir: targetDir,
		dataPaths: paths,
		priors:    sorted,
		volumes:   volumes,
		opts:      opts,
	}
}

func (c *Controller) TargetDir() string {
	return c.targetDir
}

func (c *Controller) Volumes() []string {
	return c.volumes
}

// Start runs the backup to completion. Cancelling ctx stops producers between
// items; everything already queued is still archived.
func (c *Controller) Start(ctx context.Context) model.Result {
	if len(c.dataPaths) == 0 {
		return model.Empty("no data paths to back up")
	}

	if err := os.MkdirAll(c.targetDir, 0755); err != nil {
		return model.Errorf("failed to create backup directory: %v", err)
	}

	stats := &counters{}
	index := NewPriorIndex(c.priors)
	defer index.Close()

	queues := make(map[string]*ArchiveQueue, len(c.volumes))
	for _, v := range c.volumes {
		queues[v] = NewArchiveQueue(v, c.opts.QueueSize)
	}

	input := make(chan model.DataPath, len(c.dataPaths))
	for _, dp := range c.dataPaths {
		input <- dp
	}
	close(input)

	exclude := map[string]struct{}{
		filepath.Clean(c.targetDir): {},
	}
	for _, dir := range c.opts.Exclude {
		exclude[filepath.Clean(dir)] = struct{}{}
	}

	var consumers errgroup.Group
	for _, v := range c.volumes {
		cons := &consumer{
			queue:  queues[v],
			path:   archive.PathFor(c.targetDir, v),
			method: c.opts.Method,
			stats:  stats,
		}
		consumers.Go(cons.run)
	}

	matcher := NewMatcher(index)

	var producers errgroup.Group
	workers := c.opts.WorkersPerVolume * len(c.volumes)
	for i := range workers {
		p := &producer{
			id:       i,
			input:    input,
			queues:   queues,
			matcher:  matcher,
			resolver: c.opts.Resolver,
			patterns: c.opts.IgnorePatterns,
			exclude:  exclude,
			stats:    stats,
		}
		producers.Go(func() error {
			p.run(ctx)
			return nil
		})
	}

	_ = producers.Wait()
	for _, q := range queues {
		q.Complete()
	}

	if err := consumers.Wait(); err != nil {
		logger.Log.Error("backup failed",
			zap.String("target", c.targetDir),
			zap.Error(err))
		return model.Errorf("%v", err)
	}

	s := stats.snapshot()
	if err := ctx.Err(); err != nil {
		logger.Log.Warn("backup cancelled",
			zap.String("target", c.targetDir),
			zap.Int64("archived", s.Archived))
		return model.Result{Outcome: model.OutcomeError, Message: "backup cancelled", Stats: s}
	}

	logger.Log.Info("backup complete",
		zap.String("target", c.targetDir),
		zap.Int64("archived", s.Archived),
		zap.Int64("skipped", s.Skipped),
		zap.Int64("failed", s.Failed))

	return model.Success(s)
}
