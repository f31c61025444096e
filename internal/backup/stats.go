package backup

import (
	"incback/internal/model"
	"sync/atomic"
)

type counters struct {
	archived atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
	bytes    atomic.Int64
}

func (c *counters) snapshot() model.Stats {
	return model.Stats{
		Archived: c.archived.Load(),
		Skipped:  c.skipped.Load(),
		Failed:   c.failed.Load(),
		Bytes:    c.bytes.Load(),
	}
}
