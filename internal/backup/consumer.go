package backup

import (
	"fmt"
	"incback/internal/archive"
	"incback/internal/logger"

	"go.uber.org/zap"
)

// consumer owns the archive of one volume. It appends every queued entry and
// closes the archive once the queue is complete.
type consumer struct {
	queue  *ArchiveQueue
	path   string
	method archive.Method
	stats  *counters
}

func (c *consumer) run() error {
	w, err := archive.Create(c.path, c.method)
	if err != nil {
		// producers must never block on a queue nobody reads
		c.drain()
		return fmt.Errorf("failed to open archive for volume %s: %w", c.queue.Volume, err)
	}

	for e := range c.queue.Pending() {
		n, err := w.AddFile(e.Path, e.Name)
		if err != nil {
			logger.Log.Error("failed to archive file",
				zap.String("volume", c.queue.Volume),
				zap.String("path", e.Path),
				zap.Error(err))
			c.stats.failed.Add(1)
			continue
		}

		c.stats.archived.Add(1)
		c.stats.bytes.Add(n)
		logger.Log.Debug("archived",
			zap.String("entry", e.Name),
			zap.Int64("bytes", n))
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close archive for volume %s: %w", c.queue.Volume, err)
	}

	return nil
}

func (c *consumer) drain() {
	for range c.queue.Pending() {
		c.stats.failed.Add(1)
	}
}
