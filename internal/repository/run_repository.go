package repository

import (
	"context"

	"github.com/replenit/purchase-planner/internal/domain"
)

// RunRepository persists planning runs and their output lines. Persistence
// is best-effort bookkeeping for the run history views; the engine itself
// never depends on it.
type RunRepository interface {
	// CreateRun stores a run and its lines in one transaction, returning
	// the new run id.
	CreateRun(ctx context.Context, run *domain.PlanRun, lines []domain.PlanRunLine) (int64, error)

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.PlanRun, error)

	// GetRunLines returns all persisted lines for a run.
	GetRunLines(ctx context.Context, runID int64) ([]domain.PlanRunLine, error)
}
