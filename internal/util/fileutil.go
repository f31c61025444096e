package util

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const TempSuffix = ".tmp"

// AtomicWrite writes r to dst through a sibling temp file, so readers see
// either the old or the new content.
func AtomicWrite(dst string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent dir: %w", err)
	}

	tmp := dst + TempSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return ReplaceFile(tmp, dst)
}

// ReplaceFile renames src over dst. Platforms that refuse to rename onto an
// existing file get dst removed first.
func ReplaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		if _, statErr := os.Stat(dst); statErr != nil {
			_ = os.Remove(src)
			return fmt.Errorf("failed to rename: %w", err)
		}

		if err := RemoveIfExists(dst); err != nil {
			_ = os.Remove(src)
			return err
		}

		if err := os.Rename(src, dst); err != nil {
			_ = os.Remove(src)
			return fmt.Errorf("failed to rename: %w", err)
		}
	}

	return nil
}

func RemoveIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	return nil
}

func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
