package dataset

import (
	"evdash/domain/dataset"
)

// MergedRow is a joined observation whose date column is still unparsed
type MergedRow struct {
	Observation dataset.Observation
	DateValue   string
}

func newMergedRow(ev EVRecord, ch ChargerRecord) MergedRow {
	obs := dataset.Observation{
		Region:        ev.Region,
		Registrations: ev.Registrations,
		SlowChargers:  ch.Slow,
		FastChargers:  ch.Fast,
		Chargers:      ch.Total,
	}
	obs.DeriveRatio()

	date := ev.Date
	if date == "" {
		date = ch.Date
	}
	return MergedRow{Observation: obs, DateValue: date}
}

// Merge inner-joins registrations with chargers on the region key.
//
// Duplicate keys produce every left/right pairing, in left order then right
// order, so the result size is the sum over keys of len(left)*len(right).
func Merge(ev []EVRecord, chargers []ChargerRecord) ([]MergedRow, dataset.MergeStats) {
	stats := dataset.MergeStats{LeftRows: len(ev), RightRows: len(chargers)}

	byRegion := make(map[string][]int, len(chargers))
	for i, ch := range chargers {
		byRegion[ch.Region] = append(byRegion[ch.Region], i)
	}

	matchedRight := make(map[string]bool, len(byRegion))
	seenLeft := make(map[string]bool)
	rows := make([]MergedRow, 0, len(ev))
	for _, rec := range ev {
		matches := byRegion[rec.Region]
		if len(matches) == 0 {
			if !seenLeft[rec.Region] {
				stats.UnmatchedLeft = append(stats.UnmatchedLeft, rec.Region)
				seenLeft[rec.Region] = true
			}
			continue
		}
		matchedRight[rec.Region] = true
		for _, idx := range matches {
			rows = append(rows, newMergedRow(rec, chargers[idx]))
		}
	}

	seenRight := make(map[string]bool)
	for _, ch := range chargers {
		if !matchedRight[ch.Region] && !seenRight[ch.Region] {
			stats.UnmatchedRight = append(stats.UnmatchedRight, ch.Region)
			seenRight[ch.Region] = true
		}
	}

	stats.MatchedRows = len(rows)
	return rows, stats
}
