package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"evdash/domain/dataset"
	"evdash/internal/errors"
)

// maxProblems caps how many row problems a DecodeStats keeps for display
const maxProblems = 20

// EVRecord is one decoded row of the registration table
type EVRecord struct {
	Region        string
	Registrations float64
	Date          string
}

// ChargerRecord is one decoded row of the charger table
type ChargerRecord struct {
	Region string
	Slow   float64
	Fast   float64
	Total  float64
	Date   string
}

// ChargerSource says where the total charger count comes from
type ChargerSource int

const (
	ChargersFromTotal ChargerSource = iota
	ChargersFromParts
)

// DecodeEV converts the registration table. A missing region or
// registrations column fails the whole table; unparseable rows are skipped.
func DecodeEV(table *dataset.RawTable, cols dataset.ColumnMap) ([]EVRecord, dataset.DecodeStats, error) {
	stats := dataset.DecodeStats{Rows: len(table.Rows)}
	for _, col := range []string{cols.Region, cols.Registrations} {
		if !table.HasColumn(col) {
			return nil, stats, errors.MissingColumn(col, "EV registration")
		}
	}
	withDate := table.HasColumn(cols.Date)

	records := make([]EVRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		rec, err := decodeEVRow(row, cols, withDate)
		if err != nil {
			skipRow(&stats, i, err)
			continue
		}
		records = append(records, rec)
	}
	return records, stats, nil
}

// DecodeChargers converts the charger table. The total comes from the
// chargers column when present, otherwise from slow + fast.
func DecodeChargers(table *dataset.RawTable, cols dataset.ColumnMap) ([]ChargerRecord, dataset.DecodeStats, error) {
	stats := dataset.DecodeStats{Rows: len(table.Rows)}
	if !table.HasColumn(cols.Region) {
		return nil, stats, errors.MissingColumn(cols.Region, "charger")
	}
	mode, err := DeriveChargers(table, cols)
	if err != nil {
		return nil, stats, err
	}
	withDate := table.HasColumn(cols.Date)

	records := make([]ChargerRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		rec, err := decodeChargerRow(row, cols, mode, withDate)
		if err != nil {
			skipRow(&stats, i, err)
			continue
		}
		records = append(records, rec)
	}
	return records, stats, nil
}

// DeriveChargers decides how the total charger column is obtained
func DeriveChargers(table *dataset.RawTable, cols dataset.ColumnMap) (ChargerSource, error) {
	if table.HasColumn(cols.Chargers) {
		return ChargersFromTotal, nil
	}
	if table.HasColumn(cols.SlowChargers) && table.HasColumn(cols.FastChargers) {
		return ChargersFromParts, nil
	}
	missing := cols.Chargers
	if missing == "" {
		missing = cols.SlowChargers + "+" + cols.FastChargers
	}
	return 0, errors.MissingColumn(missing, "charger")
}

// DecodeCombined handles a single table that already carries both
// registrations and chargers; no join is needed.
func DecodeCombined(table *dataset.RawTable, cols dataset.ColumnMap) ([]MergedRow, dataset.DecodeStats, error) {
	stats := dataset.DecodeStats{Rows: len(table.Rows)}
	for _, col := range []string{cols.Region, cols.Registrations} {
		if !table.HasColumn(col) {
			return nil, stats, errors.MissingColumn(col, "combined")
		}
	}
	mode, err := DeriveChargers(table, cols)
	if err != nil {
		return nil, stats, err
	}
	withDate := table.HasColumn(cols.Date)

	rows := make([]MergedRow, 0, len(table.Rows))
	for i, row := range table.Rows {
		ev, err := decodeEVRow(row, cols, withDate)
		if err != nil {
			skipRow(&stats, i, err)
			continue
		}
		ch, err := decodeChargerRow(row, cols, mode, false)
		if err != nil {
			skipRow(&stats, i, err)
			continue
		}
		rows = append(rows, newMergedRow(ev, ch))
	}
	return rows, stats, nil
}

func decodeEVRow(row dataset.RawRow, cols dataset.ColumnMap, withDate bool) (EVRecord, error) {
	region := row[cols.Region]
	if region == "" {
		return EVRecord{}, fmt.Errorf("empty %s", cols.Region)
	}
	registrations, err := ParseNumber(row[cols.Registrations])
	if err != nil {
		return EVRecord{}, fmt.Errorf("%s: %w", cols.Registrations, err)
	}
	rec := EVRecord{Region: region, Registrations: registrations}
	if withDate {
		rec.Date = row[cols.Date]
	}
	return rec, nil
}

func decodeChargerRow(row dataset.RawRow, cols dataset.ColumnMap, mode ChargerSource, withDate bool) (ChargerRecord, error) {
	region := row[cols.Region]
	if region == "" {
		return ChargerRecord{}, fmt.Errorf("empty %s", cols.Region)
	}
	rec := ChargerRecord{Region: region}

	// sub-columns are optional alongside a total column
	var err error
	if v, ok := row[cols.SlowChargers]; ok && v != "" {
		if rec.Slow, err = ParseNumber(v); err != nil {
			return ChargerRecord{}, fmt.Errorf("%s: %w", cols.SlowChargers, err)
		}
	}
	if v, ok := row[cols.FastChargers]; ok && v != "" {
		if rec.Fast, err = ParseNumber(v); err != nil {
			return ChargerRecord{}, fmt.Errorf("%s: %w", cols.FastChargers, err)
		}
	}

	switch mode {
	case ChargersFromTotal:
		if rec.Total, err = ParseNumber(row[cols.Chargers]); err != nil {
			return ChargerRecord{}, fmt.Errorf("%s: %w", cols.Chargers, err)
		}
	case ChargersFromParts:
		if row[cols.SlowChargers] == "" || row[cols.FastChargers] == "" {
			return ChargerRecord{}, fmt.Errorf("empty %s or %s", cols.SlowChargers, cols.FastChargers)
		}
		rec.Total = rec.Slow + rec.Fast
	}

	if withDate {
		rec.Date = row[cols.Date]
	}
	return rec, nil
}

// ParseNumber accepts thousands separators, surrounding spaces and "-" for zero
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "-" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// skipRow records a dropped row, numbered as a spreadsheet row (header is row 1)
func skipRow(stats *dataset.DecodeStats, index int, err error) {
	stats.SkippedRows++
	if len(stats.Problems) < maxProblems {
		stats.Problems = append(stats.Problems, fmt.Sprintf("row %d: %v", index+2, err))
	}
}
