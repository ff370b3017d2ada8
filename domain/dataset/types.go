package dataset

import (
	"time"

	"evdash/domain/core"
)

// RawRow is one data row keyed by trimmed header
type RawRow map[string]string

// RawTable is the untyped form of any tabular source
type RawTable struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	Rows    []RawRow `json:"rows"`
}

// HasColumn reports whether the header row contains name
func (t *RawTable) HasColumn(name string) bool {
	if name == "" {
		return false
	}
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// ColumnMap names the columns a table is decoded with
type ColumnMap struct {
	Region        string `json:"region"`
	Registrations string `json:"registrations"`
	Chargers      string `json:"chargers"`
	SlowChargers  string `json:"slow_chargers"`
	FastChargers  string `json:"fast_chargers"`
	Date          string `json:"date"`
}

// Observation is one joined row: a region (optionally at a period) with its
// EV registrations and charger counts.
type Observation struct {
	Region             string    `json:"region"`
	Period             time.Time `json:"period"`
	Registrations      float64   `json:"registrations"`
	SlowChargers       float64   `json:"slow_chargers"`
	FastChargers       float64   `json:"fast_chargers"`
	Chargers           float64   `json:"chargers"`
	VehiclesPerCharger float64   `json:"vehicles_per_charger"`
	HasRatio           bool      `json:"has_ratio"`
}

// HasPeriod reports whether a date column was parsed for this row
func (o Observation) HasPeriod() bool {
	return !o.Period.IsZero()
}

// DeriveRatio sets VehiclesPerCharger. Rows without chargers carry no ratio.
func (o *Observation) DeriveRatio() {
	if o.Chargers > 0 {
		o.VehiclesPerCharger = o.Registrations / o.Chargers
		o.HasRatio = true
		return
	}
	o.VehiclesPerCharger = 0
	o.HasRatio = false
}

// MergeStats describes an inner join of the EV and charger tables
type MergeStats struct {
	LeftRows       int      `json:"left_rows"`
	RightRows      int      `json:"right_rows"`
	MatchedRows    int      `json:"matched_rows"`
	UnmatchedLeft  []string `json:"unmatched_left,omitempty"`
	UnmatchedRight []string `json:"unmatched_right,omitempty"`
}

// DecodeStats counts rows dropped while decoding a table
type DecodeStats struct {
	Rows        int      `json:"rows"`
	SkippedRows int      `json:"skipped_rows"`
	Problems    []string `json:"problems,omitempty"`
}

// DateStats counts rows kept and dropped by date parsing
type DateStats struct {
	Column        string   `json:"column,omitempty"`
	Parsed        int      `json:"parsed"`
	Dropped       int      `json:"dropped"`
	DroppedValues []string `json:"dropped_values,omitempty"`
}

// Dataset is the result of one load: merged observations plus provenance
type Dataset struct {
	ID            core.DatasetID `json:"id"`
	Source        string         `json:"source"`
	LoadedAt      time.Time      `json:"loaded_at"`
	Observations  []Observation  `json:"observations"`
	Merge         MergeStats     `json:"merge"`
	EVDecode      DecodeStats    `json:"ev_decode"`
	ChargerDecode DecodeStats    `json:"charger_decode"`
	Dates         DateStats      `json:"dates"`
}

// Series returns chargers (x) and registrations (y) in row order
func (d *Dataset) Series() (x, y []float64) {
	x = make([]float64, len(d.Observations))
	y = make([]float64, len(d.Observations))
	for i, o := range d.Observations {
		x[i] = o.Chargers
		y[i] = o.Registrations
	}
	return x, y
}

// Ratios returns vehicles-per-charger for rows that have one
func (d *Dataset) Ratios() []float64 {
	out := make([]float64, 0, len(d.Observations))
	for _, o := range d.Observations {
		if o.HasRatio {
			out = append(out, o.VehiclesPerCharger)
		}
	}
	return out
}

// HasPeriods reports whether any observation carries a parsed period
func (d *Dataset) HasPeriods() bool {
	for _, o := range d.Observations {
		if o.HasPeriod() {
			return true
		}
	}
	return false
}

// TimelinePoint sums the series for one month
type TimelinePoint struct {
	Period        time.Time `json:"period"`
	Registrations float64   `json:"registrations"`
	Chargers      float64   `json:"chargers"`
	SlowChargers  float64   `json:"slow_chargers"`
	FastChargers  float64   `json:"fast_chargers"`
}
