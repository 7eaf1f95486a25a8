package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"finanspanel/internal/repository"
)

// RetentionService purges audit rows past their retention window.
type RetentionService struct {
	Repo   repository.Repository
	Logger *zap.Logger
	MaxAge time.Duration
}

func (s *RetentionService) Run(ctx context.Context, interval time.Duration) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := s.RunOnce(ctx); err != nil && s.Logger != nil {
			s.Logger.Warn("retention purge failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (s *RetentionService) RunOnce(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	maxAge := s.MaxAge
	if maxAge <= 0 {
		maxAge = 90 * 24 * time.Hour
	}
	cutoff := time.Now().UTC().Add(-maxAge)
	deleted, err := s.Repo.DeleteAnalysisRunsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 && s.Logger != nil {
		s.Logger.Info("retention purge done", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return nil
}
