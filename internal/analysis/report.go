package analysis

import (
	"math"
	"strconv"
	"time"

	"evdash/domain/core"
	"evdash/domain/dataset"
	loader "evdash/internal/dataset"
	"evdash/internal/errors"
)

// Report is everything the dashboard shows for one dataset
type Report struct {
	DatasetID     core.DatasetID          `json:"dataset_id"`
	Source        string                  `json:"source"`
	LoadedAt      time.Time               `json:"loaded_at"`
	Rows          int                     `json:"rows"`
	Fit           *Fit                    `json:"fit,omitempty"`
	Registrations ColumnSummary           `json:"registrations"`
	Chargers      ColumnSummary           `json:"chargers"`
	Ratio         *ColumnSummary          `json:"vehicles_per_charger,omitempty"`
	Timeline      []dataset.TimelinePoint `json:"timeline,omitempty"`
	Merge         dataset.MergeStats      `json:"merge"`
	Dates         dataset.DateStats       `json:"dates"`
	Warnings      []string                `json:"warnings,omitempty"`
}

// Analyze fits registrations on chargers and summarizes the dataset. A fit
// that cannot be computed becomes a warning; the rest of the report stands.
func Analyze(ds *dataset.Dataset) (*Report, error) {
	if ds == nil || len(ds.Observations) == 0 {
		return nil, errors.InsufficientData("dataset has no observations")
	}

	report := &Report{
		DatasetID: ds.ID,
		Source:    ds.Source,
		LoadedAt:  ds.LoadedAt,
		Rows:      len(ds.Observations),
		Merge:     ds.Merge,
		Dates:     ds.Dates,
		Timeline:  loader.Timeline(ds.Observations),
	}

	x, y := finitePairs(ds.Series())
	if dropped := len(ds.Observations) - len(x); dropped > 0 {
		report.Warnings = append(report.Warnings, pluralRows(dropped)+" with non-finite values excluded from the fit")
	}

	fit, err := FitLinear(x, y)
	if err != nil {
		report.Warnings = append(report.Warnings, "regression unavailable: "+err.Error())
	} else {
		report.Fit = fit
	}

	if len(x) > 0 {
		report.Registrations, _ = Summarize(y)
		report.Chargers, _ = Summarize(x)
	}
	if ratios := ds.Ratios(); len(ratios) > 0 {
		summary, _ := Summarize(ratios)
		report.Ratio = &summary
	}
	if without := len(ds.Observations) - len(ds.Ratios()); without > 0 {
		report.Warnings = append(report.Warnings, pluralRows(without)+" without chargers have no vehicles-per-charger ratio")
	}
	if ds.Dates.Dropped > 0 {
		report.Warnings = append(report.Warnings, pluralRows(ds.Dates.Dropped)+" dropped: unparseable "+ds.Dates.Column)
	}

	return report, nil
}

func finitePairs(x, y []float64) (fx, fy []float64) {
	fx = make([]float64, 0, len(x))
	fy = make([]float64, 0, len(y))
	for i := range x {
		if isFinite(x[i]) && isFinite(y[i]) {
			fx = append(fx, x[i])
			fy = append(fy, y[i])
		}
	}
	return fx, fy
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 row"
	}
	return strconv.Itoa(n) + " rows"
}
