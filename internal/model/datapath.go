package model

import (
	"path/filepath"
	"slices"
	"strings"
)

type PathType byte

const (
	PathFile      PathType = 'f'
	PathDirectory PathType = 'd'
	PathUnknown   PathType = '?'
)

func PathTypeFromCode(c byte) PathType {
	switch PathType(c) {
	case PathFile, PathDirectory:
		return PathType(c)
	default:
		return PathUnknown
	}
}

func (t PathType) String() string {
	switch t {
	case PathFile:
		return "FILE"
	case PathDirectory:
		return "DIR"
	default:
		return "UNKNOWN"
	}
}

// CopyMode selects which files of a DataPath are archived on each run.
type CopyMode byte

const (
	// CopyNone archives each file only when no prior backup holds an identical copy.
	CopyNone CopyMode = 0
	// CopyForce archives every file unconditionally.
	CopyForce CopyMode = 1
	// CopyAllOrNone archives every file of a directory as soon as one of them changed.
	CopyAllOrNone CopyMode = 2
)

func CopyModeFromCode(c byte) CopyMode {
	switch CopyMode(c) {
	case CopyForce, CopyAllOrNone:
		return CopyMode(c)
	default:
		return CopyNone
	}
}

func (m CopyMode) String() string {
	switch m {
	case CopyForce:
		return "FORCE"
	case CopyAllOrNone:
		return "ALL_OR_NONE"
	default:
		return "NONE"
	}
}

type DataPath struct {
	Volume      string   `json:"volume"`
	Type        PathType `json:"type"`
	CopyMode    CopyMode `json:"copy_mode"`
	SourcePath  string   `json:"source_path"`
	IgnoreNames []string `json:"ignore_names,omitempty"`
}

func (d DataPath) IgnoreSet() map[string]struct{} {
	set := make(map[string]struct{}, len(d.IgnoreNames))
	for _, name := range d.IgnoreNames {
		set[name] = struct{}{}
	}

	return set
}

// Overlaps reports whether either source path is a prefix of the other.
func (d DataPath) Overlaps(path string) bool {
	a := filepath.Clean(d.SourcePath)
	b := filepath.Clean(path)
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func SortDataPaths(paths []DataPath) {
	slices.SortFunc(paths, func(a, b DataPath) int {
		if c := strings.Compare(a.Volume, b.Volume); c != 0 {
			return c
		}
		return strings.Compare(a.SourcePath, b.SourcePath)
	})
}
