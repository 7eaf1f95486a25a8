package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"finanspanel/internal/models"
	"finanspanel/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InsertAnalysisRun(ctx context.Context, item *models.AnalysisRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListAnalysisRuns(ctx context.Context, params repository.ListAnalysisRunsParams) ([]models.AnalysisRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.runsQuery(ctx, params)
	query = applyOrder(query, "created_at", params.Asc)
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.AnalysisRun
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAnalysisRuns(ctx context.Context, params repository.ListAnalysisRunsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	if err := s.runsQuery(ctx, params).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) DeleteAnalysisRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AnalysisRun{})
	return res.RowsAffected, res.Error
}

func (s *Store) runsQuery(ctx context.Context, params repository.ListAnalysisRunsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.AnalysisRun{})
	if params.Operation != nil && strings.TrimSpace(*params.Operation) != "" {
		query = query.Where("operation = ?", strings.TrimSpace(*params.Operation))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("created_at >= ?", *params.Since)
	}
	return query
}

func applyOrder(query *gorm.DB, column string, asc *bool) *gorm.DB {
	direction := "DESC"
	if asc != nil && *asc {
		direction = "ASC"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 || limit > 1000 {
		return fallback
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
