package model

import (
	"sort"
	"time"
)

// PriorBackupPath is a completed backup directory usable as an incremental baseline.
type PriorBackupPath struct {
	FullPath string `json:"full_path"`
	// EffectiveTime is the latest of the directory timestamp and the
	// modification time of every file directly inside it.
	EffectiveTime time.Time `json:"effective_time"`
}

func SortNewestFirst(priors []PriorBackupPath) {
	sort.SliceStable(priors, func(i, j int) bool {
		return priors[i].EffectiveTime.After(priors[j].EffectiveTime)
	})
}
