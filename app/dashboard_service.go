package app

import (
	"context"
	"html/template"
	"io"
	"time"

	"evdash/domain/dataset"
	"evdash/internal/analysis"
	"evdash/internal/charts"
	"evdash/internal/commentary"
	loader "evdash/internal/dataset"
	"evdash/internal/errors"
	"evdash/internal/logging"
	"evdash/internal/report"

	"go.uber.org/zap"
)

// View is what the dashboard page renders. Err is set instead of a report
// when the source could not be loaded or analyzed.
type View struct {
	Source     string
	Dataset    *dataset.Dataset
	Report     *analysis.Report
	Commentary template.HTML
	Elapsed    time.Duration
	Err        error
	ErrCode    string
}

// HasTimeline reports whether a timeline chart can be drawn
func (v *View) HasTimeline() bool {
	return v.Report != nil && len(v.Report.Timeline) > 0
}

// DashboardService loads sources through the cache and turns them into
// reports, charts and workbooks
type DashboardService struct {
	cache  *loader.Cache
	logger *zap.Logger
}

// NewDashboardService creates the dashboard service
func NewDashboardService(cache *loader.Cache, logger *zap.Logger) *DashboardService {
	if cache == nil {
		cache = loader.NewCache(true, 0, logger)
	}
	return &DashboardService{cache: cache, logger: logging.OrNop(logger)}
}

// Cache returns the dataset cache
func (s *DashboardService) Cache() *loader.Cache {
	return s.cache
}

// Load returns the dataset of src, memoized
func (s *DashboardService) Load(ctx context.Context, src loader.Source) (*dataset.Dataset, error) {
	if src == nil {
		return nil, errors.NotFound("data source")
	}
	return s.cache.Load(ctx, src)
}

// Analyze loads src and computes its report
func (s *DashboardService) Analyze(ctx context.Context, src loader.Source) (*dataset.Dataset, *analysis.Report, error) {
	ds, err := s.Load(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	rep, err := analysis.Analyze(ds)
	if err != nil {
		return nil, nil, err
	}
	return ds, rep, nil
}

// Build assembles the dashboard view. The returned error is also recorded on
// the view so callers can render it.
func (s *DashboardService) Build(ctx context.Context, src loader.Source) (*View, error) {
	start := time.Now()
	view := &View{}
	if src != nil {
		view.Source = src.Key()
	}

	ds, rep, err := s.Analyze(ctx, src)
	view.Elapsed = time.Since(start)
	if err != nil {
		view.Err = err
		view.ErrCode = errors.GetCode(err)
		s.logger.Warn("dashboard build failed",
			zap.String("source", view.Source),
			zap.String("code", view.ErrCode),
			zap.Error(err))
		return view, err
	}

	view.Dataset = ds
	view.Report = rep
	view.Commentary = commentary.Render(rep.Fit)
	s.logger.Info("dashboard built",
		zap.String("source", view.Source),
		zap.String("dataset_id", ds.ID.String()),
		zap.Int("rows", rep.Rows),
		zap.Duration("elapsed", view.Elapsed))
	return view, nil
}

// Scatter renders the regression chart for src
func (s *DashboardService) Scatter(ctx context.Context, src loader.Source, opts charts.Options) ([]byte, error) {
	ds, rep, err := s.Analyze(ctx, src)
	if err != nil {
		return nil, err
	}
	return charts.Scatter(ds.Observations, rep.Fit, opts)
}

// Timeline renders the monthly chart for src
func (s *DashboardService) Timeline(ctx context.Context, src loader.Source, opts charts.Options) ([]byte, error) {
	_, rep, err := s.Analyze(ctx, src)
	if err != nil {
		return nil, err
	}
	return charts.Timeline(rep.Timeline, opts)
}

// Workbook writes the xlsx report for src to w
func (s *DashboardService) Workbook(ctx context.Context, src loader.Source, w io.Writer) error {
	ds, rep, err := s.Analyze(ctx, src)
	if err != nil {
		return err
	}
	return report.WriteWorkbook(w, ds, rep)
}
