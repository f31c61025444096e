package backup

import (
	"context"
	"fmt"
	"incback/internal/archive"
	"incback/internal/model"
	"incback/internal/prior"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const srcVolume = "SRC"

type fixture struct {
	root     string
	dest     string
	resolver *model.VolumeResolver
	past     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "src")
	require.NoError(t, os.MkdirAll(root, 0755))

	resolver, err := model.NewVolumeResolver(map[string]string{root: srcVolume})
	require.NoError(t, err)

	return &fixture{
		root:     root,
		dest:     filepath.Join(base, "backups"),
		resolver: resolver,
		past:     time.Now().Add(-time.Hour),
	}
}

func (f *fixture) write(t *testing.T, rel string, data []byte) string {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	require.NoError(t, os.Chtimes(path, f.past, f.past))
	return path
}

// buildTree lays out 22 files over nested directories plus one empty directory.
func (f *fixture) buildTree(t *testing.T) []string {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))

	large := make([]byte, 1<<20)
	for i := range large {
		large[i] = byte(rng.IntN(256))
	}

	var rels []string
	add := func(rel string, data []byte) {
		f.write(t, rel, data)
		rels = append(rels, rel)
	}

	add("tree/File1.txt", large)
	add("tree/FileSmall.txt", []byte("small file"))
	for i := range 15 {
		add(fmt.Sprintf("tree/sub2/HashFile%d.hex", i), []byte(fmt.Sprintf("%064x", rng.Uint64())))
	}
	add("tree/sub1/sub3/hw.txt", []byte("hello world"))
	for i := range 4 {
		add(fmt.Sprintf("tree/sub1/sub4/sub6/HashFile%d.hex", i), []byte(fmt.Sprintf("%064x", rng.Uint64())))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "tree", "sub5"), 0755))

	sort.Strings(rels)
	return rels
}

func (f *fixture) dataPath(rel string, typ model.PathType, mode model.CopyMode, ignore ...string) model.DataPath {
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	return model.DataPath{
		Volume:      f.resolver.Volume(path),
		Type:        typ,
		CopyMode:    mode,
		SourcePath:  path,
		IgnoreNames: ignore,
	}
}

func (f *fixture) run(t *testing.T, day int, dataPaths ...model.DataPath) (model.Result, string) {
	t.Helper()
	res, target, err := Run(context.Background(), dataPaths, RunOptions{
		DestDir: f.dest,
		Now:     time.Date(2024, 3, day, 10, 0, 0, 0, time.Local),
		Options: Options{Resolver: f.resolver},
	})
	require.NoError(t, err)
	return res, target
}

func entries(t *testing.T, target string) map[string][]byte {
	t.Helper()
	return volumeEntries(t, target, srcVolume)
}

func volumeEntries(t *testing.T, target, volume string) map[string][]byte {
	t.Helper()
	r, err := archive.Open(archive.PathFor(target, volume))
	require.NoError(t, err)
	defer r.Close()

	out := make(map[string][]byte)
	for _, zf := range r.Files() {
		rc, err := zf.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[zf.Name] = data
	}
	return out
}

func names(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestBackup_FullTreeIsByteIdentical(t *testing.T) {
	f := newFixture(t)
	rels := f.buildTree(t)

	res, target := f.run(t, 1, f.dataPath("tree", model.PathDirectory, model.CopyNone))
	require.Equal(t, model.OutcomeSuccess, res.Outcome, res.String())
	assert.Equal(t, int64(22), res.Stats.Archived)
	assert.Equal(t, "Backup_3_1_2024", filepath.Base(target))

	got := entries(t, target)
	require.Equal(t, rels, names(got))
	for _, rel := range rels {
		want, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
		require.NoError(t, err)
		assert.Equal(t, want, got[rel], rel)
	}
}

func TestBackup_SecondRunArchivesNothing(t *testing.T) {
	f := newFixture(t)
	f.buildTree(t)
	dp := f.dataPath("tree", model.PathDirectory, model.CopyNone)

	res, _ := f.run(t, 1, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)

	res, target := f.run(t, 1, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "Backup_3_1_2024_1", filepath.Base(target))
	assert.Zero(t, res.Stats.Archived)
	assert.Equal(t, int64(22), res.Stats.Skipped)
	assert.Empty(t, entries(t, target))
}

func TestBackup_ChangedFileIsArchivedAgain(t *testing.T) {
	f := newFixture(t)
	f.buildTree(t)
	dp := f.dataPath("tree", model.PathDirectory, model.CopyNone)

	res, _ := f.run(t, 1, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)

	path := filepath.Join(f.root, "tree", "sub1", "sub3", "hw.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello again"), 0644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	res, target := f.run(t, 2, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	got := entries(t, target)
	assert.Equal(t, []string{"tree/sub1/sub3/hw.txt"}, names(got))
	assert.Equal(t, "hello again", string(got["tree/sub1/sub3/hw.txt"]))
}

func TestBackup_AllOrNone(t *testing.T) {
	f := newFixture(t)
	f.buildTree(t)
	dp := f.dataPath("tree", model.PathDirectory, model.CopyAllOrNone)

	res, _ := f.run(t, 1, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)

	res, target := f.run(t, 2, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Empty(t, entries(t, target))

	path := filepath.Join(f.root, "tree", "sub2", "HashFile3.hex")
	require.NoError(t, os.WriteFile(path, []byte("changed"), 0644))
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	res, target = f.run(t, 3, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	got := names(entries(t, target))
	require.Len(t, got, 15)
	for _, name := range got {
		assert.Equal(t, "tree/sub2", filepath.ToSlash(filepath.Dir(name)))
	}
}

func TestBackup_ForceCopy(t *testing.T) {
	f := newFixture(t)
	f.buildTree(t)
	dp := f.dataPath("tree", model.PathDirectory, model.CopyForce)

	res, _ := f.run(t, 1, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)

	res, target := f.run(t, 2, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Len(t, entries(t, target), 22)
}

func TestBackup_SingleFileEntry(t *testing.T) {
	f := newFixture(t)
	f.write(t, "notes.txt", []byte("notes"))
	dp := f.dataPath("notes.txt", model.PathFile, model.CopyNone)

	res, target := f.run(t, 1, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{"notes.txt"}, names(entries(t, target)))

	res, target = f.run(t, 2, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Empty(t, entries(t, target))

	dp.CopyMode = model.CopyForce
	res, target = f.run(t, 3, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{"notes.txt"}, names(entries(t, target)))
}

func TestBackup_IgnoreNames(t *testing.T) {
	f := newFixture(t)
	f.buildTree(t)
	dp := f.dataPath("tree", model.PathDirectory, model.CopyNone, "sub2", "hw.txt")

	res, target := f.run(t, 1, dp)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)

	got := names(entries(t, target))
	assert.Len(t, got, 6)
	assert.NotContains(t, got, "tree/sub1/sub3/hw.txt")
	for _, name := range got {
		assert.NotContains(t, name, "sub2/")
	}
}

func TestBackup_IgnorePatterns(t *testing.T) {
	f := newFixture(t)
	f.buildTree(t)

	res, target, err := Run(context.Background(), []model.DataPath{f.dataPath("tree", model.PathDirectory, model.CopyNone)}, RunOptions{
		DestDir: f.dest,
		Now:     time.Date(2024, 3, 1, 10, 0, 0, 0, time.Local),
		Options: Options{Resolver: f.resolver, IgnorePatterns: []string{"*.hex"}},
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{"tree/File1.txt", "tree/FileSmall.txt", "tree/sub1/sub3/hw.txt"}, names(entries(t, target)))
}

func TestBackup_EmptySetCreatesNothing(t *testing.T) {
	f := newFixture(t)
	target := filepath.Join(f.dest, "Backup_1_1_2024")

	res := NewController(target, nil, nil, Options{Resolver: f.resolver}).Start(context.Background())
	assert.Equal(t, model.OutcomeEmpty, res.Outcome)
	_, err := os.Stat(target)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestBackup_MissingSourceIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.write(t, "kept.txt", []byte("kept"))

	res, target := f.run(t, 1,
		f.dataPath("kept.txt", model.PathFile, model.CopyNone),
		f.dataPath("gone", model.PathDirectory, model.CopyNone))
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, []string{"kept.txt"}, names(entries(t, target)))
}

func TestBackup_ExplicitPriors(t *testing.T) {
	f := newFixture(t)
	f.buildTree(t)
	dp := f.dataPath("tree", model.PathDirectory, model.CopyNone)

	_, first := f.run(t, 1, dp)

	other := filepath.Join(t.TempDir(), "elsewhere")
	res, target, err := Run(context.Background(), []model.DataPath{dp}, RunOptions{
		DestDir:    other,
		PriorPaths: []string{first},
		Now:        time.Date(2024, 3, 2, 10, 0, 0, 0, time.Local),
		Options:    Options{Resolver: f.resolver},
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeSuccess, res.Outcome)
	assert.Equal(t, other, filepath.Dir(target))
	assert.Empty(t, entries(t, target))

	_, _, err = Run(context.Background(), []model.DataPath{dp}, RunOptions{
		DestDir:    other,
		PriorPaths: []string{f.root},
		Options:    Options{Resolver: f.resolver},
	})
	assert.ErrorIs(t, err, prior.ErrNotBackup)
}

func TestBackup_CancelledContext(t *testing.T) {
	f := newFixture(t)
	f.buildTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := filepath.Join(f.dest, "Backup_1_1_2024")
	res := NewController(target, []model.DataPath{f.dataPath("tree", model.PathDirectory, model.CopyNone)}, nil,
		Options{Resolver: f.resolver}).Start(ctx)
	assert.Equal(t, model.OutcomeError, res.Outcome)

	_, err := os.Stat(archive.PathFor(target, srcVolume))
	assert.NoError(t, err)
}

func TestBackup_NestedMountKeepsRootVolume(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.txt", []byte("outer"))
	f.write(t, "media/a.txt", []byte("inner"))

	resolver, err := model.NewVolumeResolver(map[string]string{
		f.root:                          "D",
		filepath.Join(f.root, "media"): "M",
	})
	require.NoError(t, err)

	dp := model.DataPath{Type: model.PathDirectory, SourcePath: f.root}
	run := func(day int) (model.Result, string) {
		res, target, err := Run(context.Background(), []model.DataPath{dp}, RunOptions{
			DestDir: f.dest,
			Now:     time.Date(2024, 5, day, 10, 0, 0, 0, time.Local),
			Options: Options{Resolver: resolver},
		})
		require.NoError(t, err)
		require.Equal(t, model.OutcomeSuccess, res.Outcome, res.String())
		return res, target
	}

	res, target := run(1)
	assert.Equal(t, int64(2), res.Stats.Archived)
	got := volumeEntries(t, target, "D")
	assert.Equal(t, []string{"a.txt", "media/a.txt"}, names(got))
	assert.Equal(t, "outer", string(got["a.txt"]))
	assert.Equal(t, "inner", string(got["media/a.txt"]))
	_, err = os.Stat(archive.PathFor(target, "M"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	res, target = run(2)
	assert.Zero(t, res.Stats.Archived)
	assert.Equal(t, int64(2), res.Stats.Skipped)
	assert.Empty(t, volumeEntries(t, target, "D"))
}
