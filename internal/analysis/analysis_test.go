package analysis

import (
	"math"
	"testing"
	"time"

	"evdash/domain/dataset"
	"evdash/internal/errors"
	"evdash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manualPearson(x, y []float64) float64 {
	n := float64(len(x))
	var sx, sy, sxy, sx2, sy2 float64
	for i := range x {
		sx += x[i]
		sy += y[i]
		sxy += x[i] * y[i]
		sx2 += x[i] * x[i]
		sy2 += y[i] * y[i]
	}
	return (n*sxy - sx*sy) / math.Sqrt((n*sx2-sx*sx)*(n*sy2-sy*sy))
}

func closedFormOLS(x, y []float64) (slope, intercept float64) {
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(len(x))
	my /= float64(len(y))

	var sxy, sxx float64
	for i := range x {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
	}
	slope = sxy / sxx
	return slope, my - slope*mx
}

func TestFitLinear_MatchesClosedForm(t *testing.T) {
	x, y := testkit.NewFixture(testkit.DefaultGeneratorConfig()).Series()

	fit, err := FitLinear(x, y)
	require.NoError(t, err)

	slope, intercept := closedFormOLS(x, y)
	r := manualPearson(x, y)

	assert.Equal(t, len(x), fit.N)
	assert.InDelta(t, slope, fit.Slope, 1e-9)
	assert.InDelta(t, intercept, fit.Intercept, 1e-6)
	assert.InDelta(t, r, fit.PearsonR, 1e-9)
	assert.InDelta(t, r*r, fit.RSquared, 1e-9)
	assert.Less(t, fit.PValue, 0.001)
	assert.Equal(t, "strong positive", fit.Strength)

	// The fixture is generated with slope 8 and modest noise
	assert.InDelta(t, 8.0, fit.Slope, 1.0)
}

func TestFitLinear_ExactLine(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{5, 7, 9, 11, 13}

	fit, err := FitLinear(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fit.Slope, 1e-12)
	assert.InDelta(t, 3.0, fit.Intercept, 1e-12)
	assert.InDelta(t, 1.0, fit.RSquared, 1e-12)
	assert.Less(t, fit.PValue, 1e-6)
	assert.InDelta(t, 23.0, fit.Predict(10), 1e-9)
}

func TestFitLinear_Errors(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		code string
	}{
		{"empty", nil, nil, errors.CodeInsufficientData},
		{"single", []float64{1}, []float64{2}, errors.CodeInsufficientData},
		{"length mismatch", []float64{1, 2, 3}, []float64{1, 2}, errors.CodeInsufficientData},
		{"constant x", []float64{4, 4, 4}, []float64{1, 2, 3}, errors.CodeInvalidInput},
		{"constant y", []float64{1, 2, 3}, []float64{7, 7, 7}, errors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitLinear(tt.x, tt.y)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestCorrelationPValue(t *testing.T) {
	assert.InDelta(t, 0.0979, correlationPValue(0.5, 12), 0.002)
	assert.Equal(t, 1.0, correlationPValue(0.9, 2))
	assert.InDelta(t, 1.0, correlationPValue(0, 30), 1e-12)
}

func TestStrength(t *testing.T) {
	tests := []struct {
		r    float64
		want string
	}{
		{0.95, "strong positive"},
		{0.7, "strong positive"},
		{-0.55, "moderate negative"},
		{0.25, "weak positive"},
		{-0.1, "negligible"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Strength(tt.r), "r=%v", tt.r)
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{4, 1, 3, 2})
	require.NoError(t, err)

	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 2.5, s.Median, 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.Equal(t, 10.0, s.Sum)

	_, err = Summarize(nil)
	assert.Equal(t, errors.CodeInsufficientData, errors.GetCode(err))
}

func observation(region string, month time.Month, registrations, chargers float64) dataset.Observation {
	o := dataset.Observation{
		Region:        region,
		Period:        time.Date(2024, month, 1, 0, 0, 0, 0, time.UTC),
		Registrations: registrations,
		Chargers:      chargers,
	}
	o.DeriveRatio()
	return o
}

func TestAnalyze(t *testing.T) {
	ds := &dataset.Dataset{
		Source: "test",
		Observations: []dataset.Observation{
			observation("A", 1, 100, 10),
			observation("B", 1, 220, 20),
			observation("C", 2, 300, 30),
			observation("D", 2, 15, 0),
		},
		Dates: dataset.DateStats{Column: "기준년월", Parsed: 4, Dropped: 1},
	}

	report, err := Analyze(ds)
	require.NoError(t, err)

	require.NotNil(t, report.Fit)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, 4, report.Fit.N)
	assert.Equal(t, 635.0, report.Registrations.Sum)
	require.NotNil(t, report.Ratio)
	assert.Equal(t, 3, report.Ratio.Count)
	assert.InDelta(t, 10.0, report.Ratio.Min, 1e-12)

	require.Len(t, report.Timeline, 2)
	assert.Equal(t, 320.0, report.Timeline[0].Registrations)
	assert.Len(t, report.Warnings, 2)
}

func TestAnalyze_FitUnavailable(t *testing.T) {
	ds := &dataset.Dataset{Observations: []dataset.Observation{observation("A", 1, 100, 10)}}

	report, err := Analyze(ds)
	require.NoError(t, err)
	assert.Nil(t, report.Fit)
	assert.Contains(t, report.Warnings[0], "regression unavailable")

	_, err = Analyze(&dataset.Dataset{})
	assert.Equal(t, errors.CodeInsufficientData, errors.GetCode(err))
}

func TestAnalyze_SkipsNonFinite(t *testing.T) {
	ds := &dataset.Dataset{Observations: []dataset.Observation{
		observation("A", 1, 100, 10),
		observation("B", 1, 200, 20),
		observation("C", 1, math.NaN(), 30),
		observation("D", 1, 400, 40),
	}}

	report, err := Analyze(ds)
	require.NoError(t, err)
	require.NotNil(t, report.Fit)
	assert.Equal(t, 3, report.Fit.N)
	assert.Contains(t, report.Warnings[0], "non-finite")
}
