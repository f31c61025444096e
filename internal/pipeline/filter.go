package pipeline

import (
	"path/filepath"
)

// Filter decides whether a file or directory is excluded from a backup. It
// matches the entry's own name, never its full path.
type Filter struct {
	names    map[string]struct{}
	patterns []string
}

func NewFilter(names map[string]struct{}, patterns []string) *Filter {
	if names == nil {
		names = map[string]struct{}{}
	}

	return &Filter{
		names:    names,
		patterns: patterns,
	}
}

func (f *Filter) Ignored(name string) bool {
	if f == nil {
		return false
	}

	if _, ok := f.names[name]; ok {
		return true
	}

	return shouldIgnore(name, f.patterns)
}

func shouldIgnore(name string, ignoreList []string) bool {
	for _, pattern := range ignoreList {
		matched, err := filepath.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}

	return false
}
