package registry

import (
	"bytes"
	"errors"
	"fmt"
	"incback/internal/logger"
	"incback/internal/model"
	"incback/internal/util"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrConflict    = errors.New("path overlaps a registered path")
	ErrNotFound    = errors.New("path is not registered")
	ErrInvalidPath = errors.New("path does not exist")
)

// Store persists DataPath entries in a DPF file. Every operation reads the
// whole file and every mutation rewrites it.
type Store struct {
	mu       sync.Mutex
	path     string
	resolver *model.VolumeResolver
}

func NewStore(path string, resolver *model.VolumeResolver) *Store {
	return &Store{
		path:     path,
		resolver: resolver,
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load() ([]model.DataPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *Store) Add(p model.DataPath) error {
	return s.mutate(func(paths []model.DataPath) ([]model.DataPath, error) {
		for _, existing := range paths {
			if existing.Overlaps(p.SourcePath) {
				return nil, fmt.Errorf("%w: %s", ErrConflict, existing.SourcePath)
			}
		}

		return append(paths, p), nil
	})
}

func (s *Store) Remove(path string) (model.DataPath, error) {
	var removed model.DataPath
	err := s.mutate(func(paths []model.DataPath) ([]model.DataPath, error) {
		i := indexOf(paths, path)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		removed = paths[i]
		return slices.Delete(paths, i, i+1), nil
	})

	return removed, err
}

func (s *Store) UpdateCopyMode(path string, mode model.CopyMode) error {
	return s.update(path, func(p *model.DataPath) error {
		p.CopyMode = mode
		return nil
	})
}

func (s *Store) AddIgnore(path string, names ...string) error {
	return s.update(path, func(p *model.DataPath) error {
		for _, name := range names {
			if !slices.Contains(p.IgnoreNames, name) {
				p.IgnoreNames = append(p.IgnoreNames, name)
			}
		}
		return nil
	})
}

func (s *Store) RemoveIgnore(path string, names ...string) error {
	return s.update(path, func(p *model.DataPath) error {
		p.IgnoreNames = slices.DeleteFunc(p.IgnoreNames, func(name string) bool {
			return slices.Contains(names, name)
		})
		if len(p.IgnoreNames) == 0 {
			p.IgnoreNames = nil
		}
		return nil
	})
}

// NewDataPath builds an entry for an existing path, choosing the type from
// the filesystem.
func (s *Store) NewDataPath(path string, mode model.CopyMode, ignore []string) (model.DataPath, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.DataPath{}, fmt.Errorf("invalid path %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return model.DataPath{}, fmt.Errorf("%w: %s", ErrInvalidPath, abs)
	}

	pathType := model.PathFile
	if info.IsDir() {
		pathType = model.PathDirectory
	}

	return model.DataPath{
		Volume:      s.resolver.Volume(abs),
		Type:        pathType,
		CopyMode:    mode,
		SourcePath:  abs,
		IgnoreNames: ignore,
	}, nil
}

func (s *Store) update(path string, fn func(*model.DataPath) error) error {
	return s.mutate(func(paths []model.DataPath) ([]model.DataPath, error) {
		i := indexOf(paths, path)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		if err := fn(&paths[i]); err != nil {
			return nil, err
		}
		return paths, nil
	})
}

func (s *Store) mutate(fn func([]model.DataPath) ([]model.DataPath, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths, err := s.load()
	if err != nil {
		return err
	}

	paths, err = fn(paths)
	if err != nil {
		return err
	}

	data, err := Marshal(paths)
	if err != nil {
		return err
	}

	if err := util.AtomicWrite(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}

	return nil
}

func (s *Store) load() ([]model.DataPath, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.DataPath{}, nil
		}
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	paths, err := Unmarshal(data)
	if err != nil {
		logger.Log.Warn("unreadable registry, treating as empty",
			zap.String("path", s.path),
			zap.Error(err))
		return []model.DataPath{}, nil
	}

	s.resolver.Apply(paths)
	return paths, nil
}

func indexOf(paths []model.DataPath, path string) int {
	clean := filepath.Clean(path)
	return slices.IndexFunc(paths, func(p model.DataPath) bool {
		return filepath.Clean(p.SourcePath) == clean
	})
}
