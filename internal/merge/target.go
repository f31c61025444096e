package merge

import (
	"errors"
	"fmt"
	"incback/internal/archive"
	"incback/internal/util"
	"os"

	"github.com/klauspost/compress/zip"
)

// Target is the newest backup's archive of one volume, rebuilt into a
// temporary file so entries can be appended. Close swaps it in place.
type Target struct {
	Volume    string
	path      string
	tmp       string
	w         *archive.Writer
	completed map[string]struct{}
}

func OpenTarget(dir, volume string, method archive.Method) (*Target, error) {
	path := archive.PathFor(dir, volume)
	tmp := path + util.TempSuffix

	w, err := archive.Create(tmp, method)
	if err != nil {
		return nil, err
	}

	t := &Target{
		Volume:    volume,
		path:      path,
		tmp:       tmp,
		w:         w,
		completed: make(map[string]struct{}),
	}

	if err := t.load(); err != nil {
		t.Abort()
		return nil, err
	}

	return t, nil
}

func (t *Target) load() error {
	r, err := archive.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	defer func(r *archive.Reader) {
		_ = r.Close()
	}(r)

	for _, f := range r.Files() {
		if _, err := t.Copy(f); err != nil {
			return fmt.Errorf("failed to rebuild %s: %w", t.path, err)
		}
	}

	return nil
}

func (t *Target) Has(name string) bool {
	_, ok := t.completed[name]
	return ok
}

func (t *Target) Len() int {
	return len(t.completed)
}

// Copy appends src unless an entry of the same name is already present. It
// returns the bytes written, zero for a skipped entry.
func (t *Target) Copy(src *zip.File) (int64, error) {
	if t.Has(src.Name) {
		return 0, nil
	}

	n, err := t.w.Copy(src)
	if err != nil {
		return n, err
	}

	t.completed[src.Name] = struct{}{}
	return n, nil
}

// Close finishes the rebuilt archive and moves it over the original.
func (t *Target) Close() error {
	if err := t.w.Close(); err != nil {
		_ = util.RemoveIfExists(t.tmp)
		return err
	}

	if err := util.ReplaceFile(t.tmp, t.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", t.path, err)
	}

	return nil
}

// Abort discards the rebuilt archive and leaves the original untouched.
func (t *Target) Abort() {
	_ = t.w.Close()
	_ = util.RemoveIfExists(t.tmp)
}
