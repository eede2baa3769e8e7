package dashboard

import (
	"errors"

	"github.com/cataloro/probe/checks"
	"gorm.io/gorm"
)

// Service exposes the run history. Implements checks.RunStore.
type Service struct {
	Db *gorm.DB
}

// SaveRun persists a finished run with its per-check records.
func (s Service) SaveRun(run *checks.Run) error {
	probeRun, records := recordsFromRun(run)
	return s.Db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&probeRun).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
}

// RecentRuns returns the newest runs first.
func (s Service) RecentRuns(limit, offset int) ([]ProbeRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []ProbeRun
	err := s.Db.Order("started_at desc").Limit(limit).Offset(offset).Find(&runs).Error
	return runs, err
}

// RunByID returns one run with its check records.
func (s Service) RunByID(runID string) (*ProbeRun, []CheckRecord, error) {
	var run ProbeRun
	if err := s.Db.First(&run, "run_id = ?", runID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, err
		}
		return nil, nil, err
	}
	var records []CheckRecord
	if err := s.Db.Where("run_id = ?", runID).Find(&records).Error; err != nil {
		return nil, nil, err
	}
	return &run, records, nil
}

// RunsCount counts all persisted runs.
func (s Service) RunsCount() (int64, error) {
	var count int64
	err := s.Db.Model(&ProbeRun{}).Count(&count).Error
	return count, err
}

// FailureCount is how often one check has failed.
type FailureCount struct {
	Check string `json:"check"`
	Count int64  `json:"count"`
}

// FailuresByCheck aggregates failures per check across all runs.
func (s Service) FailuresByCheck() ([]FailureCount, error) {
	var counts []FailureCount
	err := s.Db.Model(&CheckRecord{}).
		Select("`check`, count(*) as count").
		Where("passed = ?", false).
		Group("`check`").
		Order("count desc").
		Scan(&counts).Error
	return counts, err
}
