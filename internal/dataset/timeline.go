package dataset

import (
	"sort"
	"time"

	"evdash/domain/dataset"
)

// Timeline sums each series per calendar month, ascending. Rows without a
// period are left out.
func Timeline(observations []dataset.Observation) []dataset.TimelinePoint {
	byMonth := make(map[time.Time]*dataset.TimelinePoint)
	for _, o := range observations {
		if !o.HasPeriod() {
			continue
		}
		month := time.Date(o.Period.Year(), o.Period.Month(), 1, 0, 0, 0, 0, time.UTC)
		point, ok := byMonth[month]
		if !ok {
			point = &dataset.TimelinePoint{Period: month}
			byMonth[month] = point
		}
		point.Registrations += o.Registrations
		point.Chargers += o.Chargers
		point.SlowChargers += o.SlowChargers
		point.FastChargers += o.FastChargers
	}

	points := make([]dataset.TimelinePoint, 0, len(byMonth))
	for _, p := range byMonth {
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Period.Before(points[j].Period)
	})
	return points
}
