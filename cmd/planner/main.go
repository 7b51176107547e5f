package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/replenit/purchase-planner/internal/dataio"
	"github.com/replenit/purchase-planner/internal/domain"
	"github.com/replenit/purchase-planner/internal/planner"
	"github.com/replenit/purchase-planner/internal/repository/postgres"
	"github.com/replenit/purchase-planner/internal/service"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "planner",
		Usage: "Generate purchase order forecasts from catalog files",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the planning engine and write the forecast report",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing catalog input files",
						Value:   "./data/catalog",
						EnvVars: []string{"APP_DATA_DIR"},
					},
					&cli.StringFlag{
						Name:  "start-month",
						Usage: "First forecast month (YYYY-MM), defaults to the current month",
					},
					&cli.IntFlag{
						Name:  "months",
						Usage: "Number of months to plan",
						Value: 6,
					},
					&cli.Float64Flag{
						Name:  "service-level",
						Usage: "Cycle service level (0.90, 0.95, 0.98, 0.99)",
						Value: 0.95,
					},
					&cli.IntFlag{
						Name:  "review-days",
						Usage: "Review period in days",
						Value: 30,
					},
					&cli.BoolFlag{
						Name:  "include-in-transit",
						Usage: "Count in-transit units as available stock",
						Value: true,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of items planned concurrently",
						Value: 4,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output file path",
						Value: "purchase_plan.json",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: json or xlsx",
						Value: service.FormatJSON,
					},
					&cli.StringFlag{
						Name:    "db-url",
						Usage:   "Optional database connection string for run history",
						EnvVars: []string{"DATABASE_URL"},
					},
				},
				Action: runPlan,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runPlan(c *cli.Context) error {
	format := c.String("format")
	if format != service.FormatJSON && format != service.FormatExcel {
		return fmt.Errorf("unsupported format: %s", format)
	}

	startMonth := c.String("start-month")
	if startMonth == "" {
		startMonth = time.Now().Format("2006-01")
	}

	data, err := dataio.LoadCatalogDir(c.String("data-dir"))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	catalog := planner.NewCatalog(data.SalesHistory, data.ItemParameters, data.CurrentInventory, data.SalesForecasts)
	eng := planner.New(catalog)

	req := domain.PlanRequest{
		StartMonth:       startMonth,
		NumMonths:        c.Int("months"),
		ServiceLevel:     c.Float64("service-level"),
		ReviewPeriodDays: c.Int("review-days"),
		IncludeInTransit: c.Bool("include-in-transit"),
	}

	var bar *progressbar.ProgressBar
	rows, err := eng.GenerateWithOptions(c.Context, req, planner.Options{
		Workers: c.Int("workers"),
		Progress: func(done, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total))
			}
			_ = bar.Set(done)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	report := dataio.NewReport(rows)
	if err := writeReport(c.String("out"), format, report); err != nil {
		return err
	}

	summary := service.Summarize(rows, report.Generated)
	fmt.Printf("Planned %d items, %d rows, %d order units, total cost %s\n",
		summary.ItemCount, summary.RowCount, summary.TotalOrderUnits, summary.TotalOrderCost.StringFixed(2))

	if dbURL := c.String("db-url"); dbURL != "" {
		if err := persistRun(c, dbURL, req, data.SourceFiles, rows, report.Generated); err != nil {
			return fmt.Errorf("failed to persist run: %w", err)
		}
	}

	return nil
}

func writeReport(path, format string, report domain.PlanReport) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	switch format {
	case service.FormatExcel:
		err = dataio.WriteExcel(out, report.Forecasts)
	default:
		err = dataio.WriteJSON(out, report)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	log.Printf("report written to %s", path)
	return nil
}

func persistRun(c *cli.Context, dbURL string, req domain.PlanRequest, sourceFiles []string, rows []domain.PurchaseForecast, startedAt time.Time) error {
	db, err := postgres.NewDBFromURL(dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	params, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode run params: %w", err)
	}
	sources, err := json.Marshal(sourceFiles)
	if err != nil {
		return fmt.Errorf("failed to encode source files: %w", err)
	}

	repo := postgres.NewRunRepository(db)
	run := &domain.PlanRun{
		StartedAt:   startedAt,
		ParamsJSON:  string(params),
		SourceFiles: string(sources),
	}
	runID, err := repo.CreateRun(c.Context, run, service.BuildRunLines(rows))
	if err != nil {
		return err
	}

	log.Printf("run %d persisted with %d lines", runID, len(rows))
	return nil
}
