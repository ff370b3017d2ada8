package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"evdash/adapters/postgres"
	"evdash/app"
	"evdash/domain/dataset"
	"evdash/internal/analysis"
	"evdash/internal/charts"
	"evdash/internal/config"
	loader "evdash/internal/dataset"
	"evdash/internal/errors"
	"evdash/internal/logging"
	"evdash/internal/report"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sourceFlags selects input files; empty flags fall back to configuration
type sourceFlags struct {
	ev      string
	charger string
	verbose bool
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.ev, "ev", "", "EV registration table (.xlsx or .csv)")
	cmd.Flags().StringVar(&f.charger, "charger", "", "Charger table (.xlsx or .csv); omit when --ev has both")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Log loader activity to stderr")
}

// load resolves the source and returns its dataset and report
func (f *sourceFlags) load(ctx context.Context) (*dataset.Dataset, *analysis.Report, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if f.ev != "" {
		cfg.Data.EVFile, cfg.Data.ChargerFile = f.ev, f.charger
	}
	cfg.Data.Demo = false

	logger := zap.NewNop()
	if f.verbose {
		if logger, err = logging.New("debug", "console"); err != nil {
			return nil, nil, err
		}
	}

	src, closeFn, err := app.ConfiguredSource(ctx, cfg, loader.OptionsFrom(cfg, logger))
	if err != nil {
		return nil, nil, err
	}
	defer closeFn()
	if src == nil {
		return nil, nil, errors.InvalidInput("no input: pass --ev (and --charger) or set EV_FILE")
	}

	return app.NewDashboardService(loader.NewCache(false, 0, logger), logger).Analyze(ctx, src)
}

func newSummaryCmd() *cobra.Command {
	var flags sourceFlags
	var width, height int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print correlation, regression and column summaries",
		Example: `  evdash-cli summary --ev ev_registrations.xlsx --charger chargers.xlsx
  evdash-cli summary --ev combined.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, rep, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), rep, width, height)
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&width, "width", 60, "Timeline chart width")
	cmd.Flags().IntVar(&height, "height", 12, "Timeline chart height")
	return cmd
}

func newExportCmd() *cobra.Command {
	var flags sourceFlags
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the merged data and analysis to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, rep, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := report.WriteWorkbook(f, ds, rep); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d rows)\n", out, rep.Rows)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "report.xlsx", "Output workbook path")
	return cmd
}

func newImportCmd() *cobra.Command {
	var flags sourceFlags
	var databaseURL, table string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge the tables and replace the PostgreSQL observation table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.ev == "" {
				return errors.InvalidInput("--ev is required for import")
			}
			ctx := cmd.Context()
			if databaseURL == "" {
				databaseURL = os.Getenv("DATABASE_URL")
			}

			ds, _, err := flags.load(ctx)
			if err != nil {
				return err
			}

			db, err := postgres.Connect(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			repo, err := postgres.NewObservationRepository(db, table)
			if err != nil {
				return err
			}
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}
			if err := repo.ReplaceAll(ctx, ds.Observations); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d observations into %s\n", len(ds.Observations), table)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL URL (defaults to DATABASE_URL)")
	cmd.Flags().StringVar(&table, "table", "ev_observations", "Target table")
	return cmd
}

func printSummary(w io.Writer, rep *analysis.Report, width, height int) error {
	fmt.Fprintf(w, "source:  %s\n", rep.Source)
	fmt.Fprintf(w, "rows:    %d (unmatched: %d EV, %d charger)\n",
		rep.Rows, len(rep.Merge.UnmatchedLeft), len(rep.Merge.UnmatchedRight))

	if fit := rep.Fit; fit != nil {
		fmt.Fprintf(w, "\npearson r   %.4f  (%s, p=%.3g)\n", fit.PearsonR, fit.Strength, fit.PValue)
		fmt.Fprintf(w, "slope       %.4f\n", fit.Slope)
		fmt.Fprintf(w, "intercept   %.4f\n", fit.Intercept)
		fmt.Fprintf(w, "r squared   %.4f\n", fit.RSquared)
	}

	fmt.Fprintf(w, "\n%-22s %8s %12s %12s %12s %12s %12s\n", "column", "count", "mean", "median", "std dev", "min", "max")
	printColumn(w, "registrations", rep.Registrations)
	printColumn(w, "chargers", rep.Chargers)
	if rep.Ratio != nil {
		printColumn(w, "vehicles per charger", *rep.Ratio)
	}

	for _, warning := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}

	if len(rep.Timeline) > 1 {
		graph, err := charts.ASCIITimeline(rep.Timeline, width, height)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s\n", graph)
	}
	return nil
}

func printColumn(w io.Writer, name string, s analysis.ColumnSummary) {
	fmt.Fprintf(w, "%-22s %8d %12.2f %12.2f %12.2f %12.2f %12.2f\n", name, s.Count, s.Mean, s.Median, s.StdDev, s.Min, s.Max)
}
