package model

import (
	"time"

	"gorm.io/gorm"
)

type RunKind string

const (
	RunBackup RunKind = "BACKUP"
	RunMerge  RunKind = "MERGE"
)

type History struct {
	gorm.Model
	RunID      string  `gorm:"uniqueIndex;not null"`
	Kind       RunKind `gorm:"not null"`
	TargetDir  string  `gorm:"not null"`
	Outcome    Outcome `gorm:"not null"`
	Archived   int64
	Skipped    int64
	Failed     int64
	Bytes      int64
	ErrMsg     string
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt time.Time `gorm:"not null"`
}
