// Package report exports a dataset and its analysis as an xlsx workbook.
package report

import (
	"io"

	"evdash/domain/dataset"
	"evdash/internal/analysis"
	"evdash/internal/errors"

	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SheetSummary  = "Summary"
	SheetData     = "Data"
	SheetTimeline = "Timeline"
)

// DataHeaders is the header row of the Data sheet
var DataHeaders = []interface{}{"region", "period", "registrations", "slow_chargers", "fast_chargers", "chargers", "vehicles_per_charger"}

// WriteWorkbook writes Summary, Data and Timeline sheets to w
func WriteWorkbook(w io.Writer, ds *dataset.Dataset, rep *analysis.Report) error {
	if ds == nil || rep == nil {
		return errors.InvalidInput("dataset and report are required")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return errors.Wrap(err, "failed to name summary sheet")
	}
	for _, name := range []string{SheetData, SheetTimeline} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "failed to create sheet %s", name)
		}
	}

	if err := writeRows(f, SheetSummary, summaryRows(rep)); err != nil {
		return err
	}
	if err := writeRows(f, SheetData, dataRows(ds.Observations)); err != nil {
		return err
	}
	if err := writeRows(f, SheetTimeline, timelineRows(rep.Timeline)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write workbook")
	}
	return nil
}

func summaryRows(rep *analysis.Report) [][]interface{} {
	rows := [][]interface{}{
		{"source", rep.Source},
		{"dataset_id", rep.DatasetID.String()},
		{"rows", rep.Rows},
		{"matched_rows", rep.Merge.MatchedRows},
		{"unmatched_ev_regions", len(rep.Merge.UnmatchedLeft)},
		{"unmatched_charger_regions", len(rep.Merge.UnmatchedRight)},
		{"dates_dropped", rep.Dates.Dropped},
		{},
	}
	if fit := rep.Fit; fit != nil {
		rows = append(rows,
			[]interface{}{"pearson_r", fit.PearsonR},
			[]interface{}{"p_value", fit.PValue},
			[]interface{}{"slope", fit.Slope},
			[]interface{}{"intercept", fit.Intercept},
			[]interface{}{"r_squared", fit.RSquared},
			[]interface{}{"strength", fit.Strength},
			[]interface{}{},
		)
	}

	rows = append(rows, []interface{}{"column", "count", "mean", "median", "std_dev", "min", "max", "sum"})
	rows = append(rows, summaryRow("registrations", rep.Registrations))
	rows = append(rows, summaryRow("chargers", rep.Chargers))
	if rep.Ratio != nil {
		rows = append(rows, summaryRow("vehicles_per_charger", *rep.Ratio))
	}
	for _, w := range rep.Warnings {
		rows = append(rows, []interface{}{"warning", w})
	}
	return rows
}

func summaryRow(name string, s analysis.ColumnSummary) []interface{} {
	return []interface{}{name, s.Count, s.Mean, s.Median, s.StdDev, s.Min, s.Max, s.Sum}
}

func dataRows(obs []dataset.Observation) [][]interface{} {
	rows := make([][]interface{}, 0, len(obs)+1)
	rows = append(rows, DataHeaders)
	for _, o := range obs {
		period := ""
		if o.HasPeriod() {
			period = o.Period.Format("2006-01-02")
		}
		var ratio interface{} = ""
		if o.HasRatio {
			ratio = o.VehiclesPerCharger
		}
		rows = append(rows, []interface{}{o.Region, period, o.Registrations, o.SlowChargers, o.FastChargers, o.Chargers, ratio})
	}
	return rows
}

func timelineRows(points []dataset.TimelinePoint) [][]interface{} {
	rows := [][]interface{}{{"period", "registrations", "chargers", "slow_chargers", "fast_chargers"}}
	for _, p := range points {
		rows = append(rows, []interface{}{p.Period.Format("2006-01"), p.Registrations, p.Chargers, p.SlowChargers, p.FastChargers})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return errors.Wrapf(err, "failed to write %s row %d", sheet, i+1)
		}
	}
	return nil
}
