package dataset

import (
	"strconv"
	"strings"
	"time"

	"evdash/domain/dataset"

	"github.com/xuri/excelize/v2"
)

// maxDroppedValues caps how many rejected date strings DateStats keeps
const maxDroppedValues = 20

// DefaultDateLayouts are tried after any configured layouts
var DefaultDateLayouts = []string{
	"2006-01",
	"2006-01-02",
	"200601",
	"20060102",
	"2006-1",
	"2006.01",
	"2006.1",
	"2006.01.02",
	"2006/01",
	"2006/1",
	"2006/01/02",
	"2006년 01월",
	"2006년 1월",
	"2006년01월",
	"2006년1월",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006",
}

// Excel date serials accepted when no layout matches: 1927-05-18 .. 2173-10-14.
// Smaller numbers are month numbers or year.month fragments, not dates.
const (
	minExcelSerial = 10000
	maxExcelSerial = 100000
)

// ParseDate tries each layout in order, then an Excel serial day number
func ParseDate(value string, layouts []string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range DefaultDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial >= minExcelSerial && serial < maxExcelSerial {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDates sets Period on every row whose date parses and drops the rest,
// preserving the order of the remaining rows
func ParseDates(rows []MergedRow, column string, layouts []string) ([]dataset.Observation, dataset.DateStats) {
	stats := dataset.DateStats{Column: column}
	out := make([]dataset.Observation, 0, len(rows))
	for _, row := range rows {
		t, ok := ParseDate(row.DateValue, layouts)
		if !ok {
			stats.Dropped++
			if len(stats.DroppedValues) < maxDroppedValues {
				stats.DroppedValues = append(stats.DroppedValues, row.DateValue)
			}
			continue
		}
		obs := row.Observation
		obs.Period = t
		out = append(out, obs)
		stats.Parsed++
	}
	return out, stats
}

// WithoutDates unwraps rows when no date column is present
func WithoutDates(rows []MergedRow) []dataset.Observation {
	out := make([]dataset.Observation, len(rows))
	for i, row := range rows {
		out[i] = row.Observation
	}
	return out
}
