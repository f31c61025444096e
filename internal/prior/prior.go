package prior

import (
	"errors"
	"fmt"
	"incback/internal/logger"
	"incback/internal/model"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const namePrefix = "Backup"

var ErrNotBackup = errors.New("not a backup directory")

// IsBackupName matches Backup_<month>_<day>_<year> with an optional _<n> suffix.
func IsBackupName(name string) bool {
	parts := strings.Split(name, "_")
	if len(parts) != 4 && len(parts) != 5 {
		return false
	}

	if parts[0] != namePrefix {
		return false
	}

	for _, part := range parts[1:] {
		if _, err := strconv.ParseUint(part, 10, 32); err != nil {
			return false
		}
	}

	return true
}

// NewBackupDir returns an unused backup directory path under parent for the
// given day. The directory is not created.
func NewBackupDir(parent string, now time.Time) (string, error) {
	base := filepath.Join(parent, fmt.Sprintf("%s_%d_%d_%d", namePrefix, int(now.Month()), now.Day(), now.Year()))

	candidate := base
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}

		candidate = fmt.Sprintf("%s_%d", base, n)
	}
}

func Resolve(path string) (model.PriorBackupPath, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return model.PriorBackupPath{}, fmt.Errorf("invalid path %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return model.PriorBackupPath{}, fmt.Errorf("failed to stat prior backup: %w", err)
	}

	if !info.IsDir() || !IsBackupName(info.Name()) {
		return model.PriorBackupPath{}, fmt.Errorf("%w: %s", ErrNotBackup, abs)
	}

	effective, err := EffectiveTime(abs)
	if err != nil {
		return model.PriorBackupPath{}, err
	}

	return model.PriorBackupPath{
		FullPath:      abs,
		EffectiveTime: effective,
	}, nil
}

// ResolveAll resolves explicit prior backup arguments, dropping duplicates,
// and returns them newest first.
func ResolveAll(paths []string) ([]model.PriorBackupPath, error) {
	seen := make(map[string]bool, len(paths))
	priors := make([]model.PriorBackupPath, 0, len(paths))

	for _, path := range paths {
		p, err := Resolve(path)
		if err != nil {
			return nil, err
		}

		if seen[p.FullPath] {
			continue
		}
		seen[p.FullPath] = true
		priors = append(priors, p)
	}

	model.SortNewestFirst(priors)
	return priors, nil
}

// Discover scans parent for backup directories and returns them newest first.
// A missing parent yields no priors.
func Discover(parent string) ([]model.PriorBackupPath, error) {
	entries, err := os.ReadDir(parent)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup dir: %w", err)
	}

	var priors []model.PriorBackupPath
	for _, e := range entries {
		if !e.IsDir() || !IsBackupName(e.Name()) {
			continue
		}

		p, err := Resolve(filepath.Join(parent, e.Name()))
		if err != nil {
			logger.Log.Warn("skipping prior backup",
				zap.String("path", e.Name()),
				zap.Error(err))
			continue
		}

		priors = append(priors, p)
	}

	model.SortNewestFirst(priors)
	return priors, nil
}

// EffectiveTime is the newest of the directory's own timestamp and the
// modification times of the files directly inside it.
func EffectiveTime(dir string) (time.Time, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	latest := info.ModTime()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		fi, err := e.Info()
		if err != nil {
			continue
		}

		if fi.ModTime().After(latest) {
			latest = fi.ModTime()
		}
	}

	return latest.UTC(), nil
}
