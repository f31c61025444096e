package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVolumeResolver(t *testing.T) {
	r, err := NewVolumeResolver(map[string]string{
		"/mnt/data":       "d",
		"/mnt/data/media": "M",
	})
	require.NoError(t, err)

	tests := []struct {
		path   string
		volume string
		entry  string
	}{
		{"/home/user/notes.txt", RootVolume, "home/user/notes.txt"},
		{"/mnt/data/docs/a.txt", "D", "docs/a.txt"},
		{"/mnt/data/media/song.mp3", "M", "song.mp3"},
		{"/mnt/database/x", RootVolume, "mnt/database/x"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.volume, r.Volume(tt.path))
			assert.Equal(t, tt.entry, r.EntryName(tt.path))
		})
	}
}

func TestLocation_NestedMount(t *testing.T) {
	r, err := NewVolumeResolver(map[string]string{
		"/mnt/data":       "D",
		"/mnt/data/media": "M",
	})
	require.NoError(t, err)

	loc := r.Locate("/mnt/data")
	assert.Equal(t, "D", loc.Volume)
	assert.Equal(t, "a.txt", loc.EntryName("/mnt/data/a.txt"))
	assert.Equal(t, "media/a.txt", loc.EntryName("/mnt/data/media/a.txt"))

	inner := r.Locate("/mnt/data/media/album")
	assert.Equal(t, "M", inner.Volume)
	assert.Equal(t, "album/x.flac", inner.EntryName("/mnt/data/media/album/x.flac"))
}

func TestNewVolumeResolver_InvalidKey(t *testing.T) {
	_, err := NewVolumeResolver(map[string]string{"/mnt": "a/b"})
	assert.Error(t, err)
}

func TestDataPath_Overlaps(t *testing.T) {
	d := DataPath{SourcePath: "/srv/app"}

	assert.True(t, d.Overlaps("/srv/app"))
	assert.True(t, d.Overlaps("/srv/app/logs"))
	assert.True(t, d.Overlaps("/srv"))
	assert.False(t, d.Overlaps("/var/app"))
}

func TestCodes(t *testing.T) {
	assert.Equal(t, PathFile, PathTypeFromCode('f'))
	assert.Equal(t, PathDirectory, PathTypeFromCode('d'))
	assert.Equal(t, PathUnknown, PathTypeFromCode('x'))

	assert.Equal(t, CopyForce, CopyModeFromCode(1))
	assert.Equal(t, CopyAllOrNone, CopyModeFromCode(2))
	assert.Equal(t, CopyNone, CopyModeFromCode(9))
}

func TestSortNewestFirst(t *testing.T) {
	now := time.Now()
	priors := []PriorBackupPath{
		{FullPath: "old", EffectiveTime: now.Add(-2 * time.Hour)},
		{FullPath: "new", EffectiveTime: now},
		{FullPath: "mid", EffectiveTime: now.Add(-time.Hour)},
	}

	SortNewestFirst(priors)

	assert.Equal(t, "new", priors[0].FullPath)
	assert.Equal(t, "mid", priors[1].FullPath)
	assert.Equal(t, "old", priors[2].FullPath)
}
