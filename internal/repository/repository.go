package repository

import (
	"context"
	"time"

	"finanspanel/internal/models"
)

type ListAnalysisRunsParams struct {
	Operation *string
	Since     *time.Time
	Limit     int
	Offset    int
	Asc       *bool
}

// Repository persists the analysis-run audit trail. The engine itself holds
// no state; this is the only storage surface of the service.
type Repository interface {
	InsertAnalysisRun(ctx context.Context, item *models.AnalysisRun) error
	ListAnalysisRuns(ctx context.Context, params ListAnalysisRunsParams) ([]models.AnalysisRun, error)
	CountAnalysisRuns(ctx context.Context, params ListAnalysisRunsParams) (int64, error)
	DeleteAnalysisRunsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
