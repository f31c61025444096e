package model

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// RootVolume is the key of paths not covered by a drive letter or a configured mount.
const RootVolume = "R"

type mount struct {
	prefix string
	key    string
}

// VolumeResolver maps source paths to the partition key that names their
// archive, and to the entry name used inside that archive.
type VolumeResolver struct {
	mounts []mount
}

func NewVolumeResolver(mounts map[string]string) (*VolumeResolver, error) {
	r := &VolumeResolver{}
	for prefix, key := range mounts {
		if !ValidVolumeKey(key) {
			return nil, fmt.Errorf("invalid volume key %q for %s", key, prefix)
		}
		r.mounts = append(r.mounts, mount{
			prefix: filepath.Clean(prefix),
			key:    strings.ToUpper(key),
		})
	}

	sort.Slice(r.mounts, func(i, j int) bool {
		return len(r.mounts[i].prefix) > len(r.mounts[j].prefix)
	})

	return r, nil
}

// ValidVolumeKey accepts short alphanumeric keys usable as a file name.
func ValidVolumeKey(key string) bool {
	if key == "" || len(key) > 16 {
		return false
	}
	for _, c := range key {
		if c > unicode.MaxASCII || !(unicode.IsLetter(c) || unicode.IsDigit(c)) {
			return false
		}
	}
	return true
}

func (r *VolumeResolver) Volume(path string) string {
	key, _ := r.resolve(path)
	return key
}

// EntryName strips the volume prefix from path and returns a slash separated
// name relative to the volume.
func (r *VolumeResolver) EntryName(path string) string {
	return r.Locate(path).EntryName(path)
}

// Location is the volume a DataPath belongs to and the prefix stripped from
// every file below it.
type Location struct {
	Volume string
	Prefix string
}

// Locate resolves the location of a DataPath root. Files below the root keep
// this location even when a nested mount covers them.
func (r *VolumeResolver) Locate(path string) Location {
	key, prefix := r.resolve(path)
	return Location{Volume: key, Prefix: prefix}
}

func (l Location) EntryName(path string) string {
	rel := strings.TrimPrefix(filepath.Clean(path), l.Prefix)
	rel = strings.TrimLeft(rel, `/\`)
	return filepath.ToSlash(rel)
}

// Apply fills in the Volume of every entry.
func (r *VolumeResolver) Apply(paths []DataPath) {
	for i := range paths {
		paths[i].Volume = r.Volume(paths[i].SourcePath)
	}
}

func (r *VolumeResolver) resolve(path string) (key, prefix string) {
	clean := filepath.Clean(path)

	if vol := filepath.VolumeName(clean); vol != "" {
		return strings.ToUpper(vol[:1]), vol
	}

	if r != nil {
		for _, m := range r.mounts {
			if clean == m.prefix || strings.HasPrefix(clean, m.prefix+string(filepath.Separator)) {
				return m.key, m.prefix
			}
		}
	}

	return RootVolume, string(filepath.Separator)
}
