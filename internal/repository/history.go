package repository

import (
	"incback/internal/db"
	"incback/internal/model"
	"time"

	"github.com/google/uuid"
)

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

// Save records one finished run and returns its generated id.
func (r *HistoryRepository) Save(kind model.RunKind, targetDir string, result model.Result, startedAt time.Time) (string, error) {
	errMsg := ""
	if result.Outcome == model.OutcomeError {
		errMsg = result.Message
	}

	history := model.History{
		RunID:      uuid.NewString(),
		Kind:       kind,
		TargetDir:  targetDir,
		Outcome:    result.Outcome,
		Archived:   result.Stats.Archived,
		Skipped:    result.Stats.Skipped,
		Failed:     result.Stats.Failed,
		Bytes:      result.Stats.Bytes,
		ErrMsg:     errMsg,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}

	return history.RunID, db.DB.Create(&history).Error
}

type Stats struct {
	Total    int64 `json:"total"`
	Success  int64 `json:"success"`
	Failed   int64 `json:"failed"`
	Archived int64 `json:"archived"`
	Bytes    int64 `json:"bytes"`
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.History{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.History{}).
		Where("outcome = ?", model.OutcomeSuccess).
		Count(&stats.Success).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.History{}).
		Where("outcome = ?", model.OutcomeError).
		Count(&stats.Failed).Error; err != nil {
		return stats, err
	}

	var totals struct {
		Archived int64
		Bytes    int64
	}
	if err := db.DB.Model(&model.History{}).
		Select("COALESCE(SUM(archived), 0) AS archived, COALESCE(SUM(bytes), 0) AS bytes").
		Scan(&totals).Error; err != nil {
		return stats, err
	}
	stats.Archived = totals.Archived
	stats.Bytes = totals.Bytes

	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Order("started_at desc").
		Limit(limit).
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetFailed() ([]model.History, error) {
	var histories []model.History
	result := db.DB.
		Where("outcome = ?", model.OutcomeError).
		Order("started_at desc").
		Find(&histories)

	return histories, result.Error
}

func (r *HistoryRepository) GetByRunID(runID string) (model.History, error) {
	var history model.History
	return history, db.DB.Where("run_id = ?", runID).First(&history).Error
}
