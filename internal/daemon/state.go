package daemon

import (
	"incback/internal/model"
	"incback/internal/repository"
	"time"
)

type StatusSnapshot struct {
	StartedAt time.Time        `json:"started_at"`
	Uptime    string           `json:"uptime"`
	Registry  string           `json:"registry"`
	DataPaths int              `json:"data_paths"`
	Volumes   map[string]int   `json:"volumes"`
	Runs      repository.Stats `json:"runs"`
	LastRun   *model.History   `json:"last_run,omitempty"`
	BackupDir string           `json:"backup_dir,omitempty"`
}

func (s *Server) snapshot() (StatusSnapshot, error) {
	paths, err := s.store.Load()
	if err != nil {
		return StatusSnapshot{}, err
	}

	volumes := make(map[string]int)
	for _, p := range paths {
		volumes[p.Volume]++
	}

	stats, err := s.histRepo.GetStats()
	if err != nil {
		return StatusSnapshot{}, err
	}

	snap := StatusSnapshot{
		StartedAt: s.startedAt,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Registry:  s.store.Path(),
		DataPaths: len(paths),
		Volumes:   volumes,
		Runs:      stats,
		BackupDir: s.backupDir,
	}

	recent, err := s.histRepo.GetRecent(1)
	if err != nil {
		return StatusSnapshot{}, err
	}
	if len(recent) > 0 {
		snap.LastRun = &recent[0]
	}

	return snap, nil
}
