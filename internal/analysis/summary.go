package analysis

import (
	"evdash/internal/errors"

	"github.com/montanaflynn/stats"
)

// ColumnSummary describes one numeric column
type ColumnSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Sum    float64 `json:"sum"`
}

// Summarize computes descriptive statistics; StdDev is the population value
func Summarize(values []float64) (ColumnSummary, error) {
	if len(values) == 0 {
		return ColumnSummary{}, errors.InsufficientData("no values to summarize")
	}
	data := stats.Float64Data(values)

	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	stdDev, _ := stats.StandardDeviationPopulation(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	sum, _ := stats.Sum(data)

	return ColumnSummary{
		Count:  len(values),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		Sum:    sum,
	}, nil
}
