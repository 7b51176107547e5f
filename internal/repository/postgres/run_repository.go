package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/replenit/purchase-planner/internal/domain"
	"github.com/replenit/purchase-planner/internal/repository"
)

type runRepository struct {
	db *DB
}

// NewRunRepository creates the Postgres-backed run store.
func NewRunRepository(db *DB) repository.RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) CreateRun(ctx context.Context, run *domain.PlanRun, lines []domain.PlanRunLine) (int64, error) {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO plan_runs (started_at, params_json, source_files)
			VALUES ($1, $2, $3)
			RETURNING id
		`
		startedAt := run.StartedAt
		if startedAt.IsZero() {
			startedAt = time.Now()
		}
		if err := tx.QueryRowContext(ctx, query, startedAt, run.ParamsJSON, run.SourceFiles).Scan(&run.ID); err != nil {
			return fmt.Errorf("failed to insert plan run: %w", err)
		}

		lineQuery := `
			INSERT INTO plan_run_lines (
				run_id, sku, item_name, supplier, demand,
				order_qty, unit_cost, total_cost, notes, metadata_json
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		stmt, err := tx.PrepareContext(ctx, lineQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare line statement: %w", err)
		}
		defer stmt.Close()

		for _, line := range lines {
			_, err := stmt.ExecContext(
				ctx,
				run.ID,
				line.SKU,
				line.ItemName,
				line.Supplier,
				line.Demand,
				line.OrderQty,
				line.UnitCost,
				line.TotalCost,
				line.Notes,
				line.MetadataJSON,
			)
			if err != nil {
				return fmt.Errorf("failed to insert plan run line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return run.ID, nil
}

func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]domain.PlanRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, started_at, params_json, source_files
		FROM plan_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	var runs []domain.PlanRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("error listing plan runs: %w", err)
	}
	return runs, nil
}

func (r *runRepository) GetRunLines(ctx context.Context, runID int64) ([]domain.PlanRunLine, error) {
	query := `
		SELECT id, run_id, sku, item_name, supplier, demand,
		       order_qty, unit_cost, total_cost, notes, metadata_json
		FROM plan_run_lines
		WHERE run_id = $1
		ORDER BY sku, id
	`

	var lines []domain.PlanRunLine
	if err := r.db.SelectContext(ctx, &lines, query, runID); err != nil {
		return nil, fmt.Errorf("error getting plan run lines: %w", err)
	}
	return lines, nil
}
