package backup

import (
	"incback/internal/archive"
	"incback/internal/model"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makePrior writes a backup directory holding one archive with the given
// entries, each copied from the named source file.
func makePrior(t *testing.T, dir string, effective time.Time, files map[string]string) model.PriorBackupPath {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))

	w, err := archive.Create(archive.PathFor(dir, srcVolume), archive.MethodDeflate)
	require.NoError(t, err)
	for name, src := range files {
		_, err := w.AddFile(src, name)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return model.PriorBackupPath{FullPath: dir, EffectiveTime: effective}
}

func stat(t *testing.T, path string) os.FileInfo {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info
}

func TestMatcher(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "a.txt", []byte("alpha"))
	entry := Entry{Path: src, Name: "a.txt"}
	now := time.Now()

	snapshot := filepath.Join(t.TempDir(), "a.snapshot")
	require.NoError(t, os.WriteFile(snapshot, []byte("alpha"), 0644))
	other := filepath.Join(t.TempDir(), "a.other")
	require.NoError(t, os.WriteFile(other, []byte("alphabet"), 0644))
	sameSize := filepath.Join(t.TempDir(), "a.same")
	require.NoError(t, os.WriteFile(sameSize, []byte("omega"), 0644))

	base := t.TempDir()

	t.Run("matched", func(t *testing.T) {
		p := makePrior(t, filepath.Join(base, "m1"), now, map[string]string{"a.txt": snapshot})
		index := NewPriorIndex([]model.PriorBackupPath{p})
		defer index.Close()

		ok, err := NewMatcher(index).IsInPriorBackups(srcVolume, entry, stat(t, src))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("modified after prior", func(t *testing.T) {
		p := makePrior(t, filepath.Join(base, "m2"), f.past.Add(-time.Minute), map[string]string{"a.txt": snapshot})
		index := NewPriorIndex([]model.PriorBackupPath{p})
		defer index.Close()

		ok, err := NewMatcher(index).IsInPriorBackups(srcVolume, entry, stat(t, src))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("size differs", func(t *testing.T) {
		p := makePrior(t, filepath.Join(base, "m3"), now, map[string]string{"a.txt": other})
		index := NewPriorIndex([]model.PriorBackupPath{p})
		defer index.Close()

		ok, err := NewMatcher(index).IsInPriorBackups(srcVolume, entry, stat(t, src))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("content differs", func(t *testing.T) {
		p := makePrior(t, filepath.Join(base, "m4"), now, map[string]string{"a.txt": sameSize})
		index := NewPriorIndex([]model.PriorBackupPath{p})
		defer index.Close()

		ok, err := NewMatcher(index).IsInPriorBackups(srcVolume, entry, stat(t, src))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("found in older prior", func(t *testing.T) {
		older := makePrior(t, filepath.Join(base, "m5"), now.Add(-time.Minute), map[string]string{"a.txt": snapshot})
		newer := makePrior(t, filepath.Join(base, "m6"), now, map[string]string{"b.txt": snapshot})
		missing := model.PriorBackupPath{FullPath: filepath.Join(base, "absent"), EffectiveTime: now.Add(time.Minute)}
		priors := []model.PriorBackupPath{older, newer, missing}
		model.SortNewestFirst(priors)

		index := NewPriorIndex(priors)
		defer index.Close()

		ok, err := NewMatcher(index).IsInPriorBackups(srcVolume, entry, stat(t, src))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("no priors", func(t *testing.T) {
		index := NewPriorIndex(nil)
		ok, err := NewMatcher(index).IsInPriorBackups(srcVolume, entry, stat(t, src))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestArchiveQueue(t *testing.T) {
	q := NewArchiveQueue(srcVolume, 2)
	ctx := t.Context()

	assert.True(t, q.Push(ctx, Entry{Path: "/src/a", Name: "a"}))
	assert.True(t, q.Push(ctx, Entry{Path: "/src/b", Name: "b"}))
	q.Complete()
	q.Complete()

	var got []string
	for e := range q.Pending() {
		got = append(got, e.Name)
	}
	assert.Equal(t, []string{"a", "b"}, got)
}
