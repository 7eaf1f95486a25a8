package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"finanspanel/internal/engine"
	"finanspanel/internal/models"
	"finanspanel/internal/repository"
)

// Operation names recorded on audit rows.
const (
	OpReport       = "report"
	OpBrief        = "brief"
	OpCycleIndex   = "cycle_index"
	OpProfitStream = "profit_stream"
)

// AnalysisService runs the engine and records an audit row per request.
// Audit persistence is best effort: a storage failure never fails the
// analysis, and a nil Repo disables it entirely.
type AnalysisService struct {
	Engine *engine.Analyzer
	Repo   repository.Repository
	Logger *zap.Logger
}

// Result is one completed analysis: the per-member slots plus the
// table-level data-quality warnings.
type Result struct {
	Members       []engine.MemberResult `json:"members"`
	TableWarnings []engine.Warning      `json:"table_warnings,omitempty"`
}

func (s *AnalysisService) Reports(ctx context.Context, req engine.Request) (*Result, error) {
	return s.run(ctx, OpReport, req, s.Engine.Reports)
}

func (s *AnalysisService) Briefs(ctx context.Context, req engine.Request) (*Result, error) {
	return s.run(ctx, OpBrief, req, s.Engine.Briefs)
}

func (s *AnalysisService) CycleIndexes(ctx context.Context, req engine.Request) (*Result, error) {
	return s.run(ctx, OpCycleIndex, req, s.Engine.CycleIndexes)
}

func (s *AnalysisService) ProfitStreams(ctx context.Context, req engine.Request) (*Result, error) {
	return s.run(ctx, OpProfitStream, req, s.Engine.ProfitStreams)
}

type analyzeFn func(context.Context, engine.Request) ([]engine.MemberResult, []engine.Warning, error)

func (s *AnalysisService) run(ctx context.Context, op string, req engine.Request, fn analyzeFn) (*Result, error) {
	start := time.Now()
	members, tableWarnings, err := fn(ctx, req)
	s.recordRun(ctx, op, req, members, tableWarnings, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return &Result{Members: members, TableWarnings: tableWarnings}, nil
}

func (s *AnalysisService) recordRun(ctx context.Context, op string, req engine.Request, members []engine.MemberResult, tableWarnings []engine.Warning, runErr error, elapsed time.Duration) {
	if s == nil || s.Repo == nil {
		return
	}
	errorCount := 0
	warningCount := len(tableWarnings)
	for _, m := range members {
		if m.Error != nil {
			errorCount++
		}
		warningCount += len(m.Warnings)
	}
	if runErr != nil {
		errorCount++
	}

	params := map[string]any{
		"cycle_index":       req.CycleIndex,
		"start_cycle_index": req.StartCycleIndex,
		"end_cycle_index":   req.EndCycleIndex,
		"threshold_minutes": req.ThresholdMinutes,
	}
	paramsJSON, _ := json.Marshal(params)
	warningsJSON, _ := json.Marshal(tableWarnings)

	item := &models.AnalysisRun{
		Operation:    op,
		MemberFilter: req.MemberFilter,
		RowCount:     len(req.Events),
		MemberCount:  len(members),
		ErrorCount:   errorCount,
		WarningCount: warningCount,
		Params:       datatypes.JSON(paramsJSON),
		Warnings:     datatypes.JSON(warningsJSON),
		DurationMS:   elapsed.Milliseconds(),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Repo.InsertAnalysisRun(ctx, item); err != nil && s.Logger != nil {
		s.Logger.Warn("audit insert failed", zap.String("operation", op), zap.Error(err))
	}
}
