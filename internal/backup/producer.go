package backup

import (
	"context"
	"incback/internal/logger"
	"incback/internal/model"
	"incback/internal/pipeline"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

type fileEntry struct {
	Entry
	info fs.FileInfo
}

// producer claims DataPath entries from the shared input and pushes the files
// that need archiving onto the queue of their volume.
type producer struct {
	id       int
	input    <-chan model.DataPath
	queues   map[string]*ArchiveQueue
	matcher  *Matcher
	resolver *model.VolumeResolver
	patterns []string
	exclude  map[string]struct{}
	stats    *counters
}

// job is one DataPath being produced. Every file below the root is named
// relative to the root's own volume, whatever mounts lie beneath it.
type job struct {
	dp  model.DataPath
	loc model.Location
	q   *ArchiveQueue
}

func (p *producer) run(ctx context.Context) {
	for dp := range p.input {
		if ctx.Err() != nil {
			return
		}

		q, ok := p.queues[dp.Volume]
		if !ok {
			logger.Log.Error("no archive queue for volume",
				zap.String("volume", dp.Volume),
				zap.String("path", dp.SourcePath))
			p.stats.failed.Add(1)
			continue
		}

		loc := p.resolver.Locate(dp.SourcePath)
		loc.Volume = dp.Volume
		p.process(ctx, job{dp: dp, loc: loc, q: q})
	}
}

func (p *producer) process(ctx context.Context, j job) {
	switch j.dp.Type {
	case model.PathFile:
		p.produceFile(ctx, j)
	case model.PathDirectory:
		p.produceDirectory(ctx, j)
	default:
		info, err := os.Stat(j.dp.SourcePath)
		if err != nil {
			logger.Log.Warn("source not found",
				zap.String("path", j.dp.SourcePath),
				zap.Error(err))
			p.stats.failed.Add(1)
			return
		}

		if info.IsDir() {
			j.dp.Type = model.PathDirectory
		} else {
			j.dp.Type = model.PathFile
		}
		p.process(ctx, j)
	}
}

func (p *producer) produceFile(ctx context.Context, j job) {
	info, err := os.Stat(j.dp.SourcePath)
	if err != nil || !info.Mode().IsRegular() {
		logger.Log.Warn("source file not found",
			zap.String("path", j.dp.SourcePath),
			zap.Error(err))
		p.stats.failed.Add(1)
		return
	}

	file := fileEntry{
		Entry: Entry{Path: j.dp.SourcePath, Name: j.loc.EntryName(j.dp.SourcePath)},
		info:  info,
	}
	if j.dp.CopyMode == model.CopyForce || !p.matched(j, file) {
		p.enqueue(ctx, j, file.Entry)
		return
	}

	p.stats.skipped.Add(1)
}

// produceDirectory walks the tree with an explicit stack. A directory whose
// name is ignored is skipped along with everything below it.
func (p *producer) produceDirectory(ctx context.Context, j job) {
	filter := pipeline.NewFilter(j.dp.IgnoreSet(), p.patterns)
	stack := []string{filepath.Clean(j.dp.SourcePath)}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			return
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if filter.Ignored(filepath.Base(dir)) {
			continue
		}
		if _, ok := p.exclude[dir]; ok {
			continue
		}

		files, subdirs, err := listDir(dir, filter, j.loc)
		if err != nil {
			logger.Log.Error("abandoning subtree",
				zap.Int("producer", p.id),
				zap.String("dir", dir),
				zap.Error(err))
			p.stats.failed.Add(1)
			continue
		}

		switch j.dp.CopyMode {
		case model.CopyForce:
			p.enqueueAll(ctx, j, files)
		case model.CopyAllOrNone:
			p.allOrNone(ctx, j, files)
		default:
			for _, f := range files {
				if p.matched(j, f) {
					p.stats.skipped.Add(1)
					continue
				}
				p.enqueue(ctx, j, f.Entry)
			}
		}

		stack = append(stack, subdirs...)
	}
}

func (p *producer) allOrNone(ctx context.Context, j job, files []fileEntry) {
	for _, f := range files {
		if !p.matched(j, f) {
			p.enqueueAll(ctx, j, files)
			return
		}
	}

	p.stats.skipped.Add(int64(len(files)))
}

func (p *producer) enqueueAll(ctx context.Context, j job, files []fileEntry) {
	for _, f := range files {
		p.enqueue(ctx, j, f.Entry)
	}
}

func (p *producer) enqueue(ctx context.Context, j job, e Entry) {
	if !j.q.Push(ctx, e) {
		logger.Log.Debug("enqueue cancelled",
			zap.String("path", e.Path))
	}
}

// matched reports whether a prior backup holds the file. Errors count as
// not matched so the file is archived again.
func (p *producer) matched(j job, f fileEntry) bool {
	ok, err := p.matcher.IsInPriorBackups(j.loc.Volume, f.Entry, f.info)
	if err != nil {
		logger.Log.Warn("prior backup comparison failed",
			zap.String("path", f.Path),
			zap.Error(err))
		return false
	}

	return ok
}

func listDir(dir string, filter *pipeline.Filter, loc model.Location) ([]fileEntry, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	var files []fileEntry
	var subdirs []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())

		if e.IsDir() {
			subdirs = append(subdirs, path)
			continue
		}

		if !e.Type().IsRegular() || filter.Ignored(e.Name()) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			logger.Log.Warn("failed to stat file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}

		files = append(files, fileEntry{
			Entry: Entry{Path: path, Name: loc.EntryName(path)},
			info:  info,
		})
	}

	return files, subdirs, nil
}
