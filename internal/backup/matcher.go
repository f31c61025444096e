package backup

import (
	"fmt"
	"incback/internal/archive"
	"incback/internal/logger"
	"incback/internal/model"
	"incback/internal/util"
	"io"
	"io/fs"
	"sync"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

type archiveKey struct {
	prior  int
	volume string
}

type lazyArchive struct {
	once sync.Once
	r    *archive.Reader
	err  error
}

// PriorIndex opens prior backup archives on first use and keeps them open
// for the rest of the run. It is safe for concurrent use.
type PriorIndex struct {
	priors []model.PriorBackupPath

	mu       sync.Mutex
	archives map[archiveKey]*lazyArchive
}

func NewPriorIndex(priors []model.PriorBackupPath) *PriorIndex {
	return &PriorIndex{
		priors:   priors,
		archives: make(map[archiveKey]*lazyArchive),
	}
}

func (x *PriorIndex) Priors() []model.PriorBackupPath {
	return x.priors
}

func (x *PriorIndex) archive(i int, volume string) (*archive.Reader, error) {
	k := archiveKey{prior: i, volume: volume}

	x.mu.Lock()
	la, ok := x.archives[k]
	if !ok {
		la = &lazyArchive{}
		x.archives[k] = la
	}
	x.mu.Unlock()

	la.once.Do(func() {
		la.r, la.err = archive.Open(archive.PathFor(x.priors[i].FullPath, volume))
		if la.err != nil {
			logger.Log.Debug("prior archive unavailable",
				zap.String("prior", x.priors[i].FullPath),
				zap.String("volume", volume),
				zap.Error(la.err))
		}
	})

	return la.r, la.err
}

func (x *PriorIndex) Close() {
	x.mu.Lock()
	defer x.mu.Unlock()

	for _, la := range x.archives {
		if la.r != nil {
			_ = la.r.Close()
		}
	}
	x.archives = make(map[archiveKey]*lazyArchive)
}

// Matcher decides whether a prior backup already holds an identical copy of
// a file.
type Matcher struct {
	index *PriorIndex
}

func NewMatcher(index *PriorIndex) *Matcher {
	return &Matcher{
		index: index,
	}
}

// IsInPriorBackups walks the priors newest first. A file modified at or
// after a prior's effective time is never matched by it or any older prior.
// Equal sizes are confirmed by hashing both contents. The entry is looked up
// in each prior's archive of the given volume.
func (m *Matcher) IsInPriorBackups(volume string, e Entry, info fs.FileInfo) (bool, error) {
	modified := info.ModTime().UTC()

	for i, p := range m.index.Priors() {
		if !modified.Before(p.EffectiveTime) {
			return false, nil
		}

		r, err := m.index.archive(i, volume)
		if err != nil {
			continue
		}

		f, ok := r.Lookup(e.Name)
		if !ok {
			continue
		}

		if int64(f.UncompressedSize64) != info.Size() {
			return false, nil
		}

		return sameContent(f, e.Path)
	}

	return false, nil
}

func sameContent(f *zip.File, path string) (bool, error) {
	rc, err := f.Open()
	if err != nil {
		return false, fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}

	defer func(rc io.ReadCloser) {
		_ = rc.Close()
	}(rc)

	entrySum, err := util.Checksum(rc)
	if err != nil {
		return false, fmt.Errorf("failed to hash entry %s: %w", f.Name, err)
	}

	fileSum, err := util.FileChecksum(path)
	if err != nil {
		return false, fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return entrySum == fileSum, nil
}
