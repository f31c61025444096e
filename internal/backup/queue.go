package backup

import (
	"context"
	"sync"
)

// Entry is a file to archive and the name it is stored under.
type Entry struct {
	Path string
	Name string
}

// ArchiveQueue carries files destined for one volume archive. Any number
// of producers push; exactly one consumer drains it.
type ArchiveQueue struct {
	Volume  string
	pending chan Entry
	once    sync.Once
}

func NewArchiveQueue(volume string, size int) *ArchiveQueue {
	return &ArchiveQueue{
		Volume:  volume,
		pending: make(chan Entry, size),
	}
}

// Push blocks until the entry is queued or ctx is done. It reports whether
// the entry was queued.
func (q *ArchiveQueue) Push(ctx context.Context, e Entry) bool {
	select {
	case q.pending <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

func (q *ArchiveQueue) Pending() <-chan Entry {
	return q.pending
}

// Complete marks the queue as finished. Entries already queued stay readable
// until drained. No Push may follow Complete.
func (q *ArchiveQueue) Complete() {
	q.once.Do(func() {
		close(q.pending)
	})
}
