package charts

import (
	"bytes"
	"testing"
	"time"

	"evdash/domain/dataset"
	"evdash/internal/analysis"
	"evdash/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleObservations() []dataset.Observation {
	return []dataset.Observation{
		{Region: "A", Registrations: 100, Chargers: 10},
		{Region: "B", Registrations: 210, Chargers: 20},
		{Region: "C", Registrations: 290, Chargers: 30},
	}
}

func samplePoints() []dataset.TimelinePoint {
	return []dataset.TimelinePoint{
		{Period: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Registrations: 100, Chargers: 10, SlowChargers: 7, FastChargers: 3},
		{Period: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Registrations: 150, Chargers: 14, SlowChargers: 9, FastChargers: 5},
		{Period: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Registrations: 240, Chargers: 20, SlowChargers: 12, FastChargers: 8},
	}
}

func TestScatter_SVG(t *testing.T) {
	fit, err := analysis.FitLinear([]float64{10, 20, 30}, []float64{100, 210, 290})
	require.NoError(t, err)

	out, err := Scatter(sampleObservations(), fit, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte("<svg")))
}

func TestScatter_PNGWithoutFit(t *testing.T) {
	out, err := Scatter(sampleObservations(), nil, Options{Format: FormatPNG})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("\x89PNG")))
}

func TestScatter_Errors(t *testing.T) {
	_, err := Scatter(nil, nil, DefaultOptions())
	assert.Equal(t, errors.CodeInsufficientData, errors.GetCode(err))

	_, err = Scatter(sampleObservations(), nil, Options{Format: "gif"})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestTimeline(t *testing.T) {
	out, err := Timeline(samplePoints(), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte("<svg")))

	_, err = Timeline(nil, DefaultOptions())
	assert.Equal(t, errors.CodeInsufficientData, errors.GetCode(err))
}

func TestTimelineSeries_HidesMissingSplit(t *testing.T) {
	points := samplePoints()
	assert.Len(t, timelineSeries(points), 4)

	for i := range points {
		points[i].SlowChargers, points[i].FastChargers = 0, 0
	}
	assert.Len(t, timelineSeries(points), 2)
}

func TestASCIITimeline(t *testing.T) {
	out, err := ASCIITimeline(samplePoints(), 40, 8)
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01 .. 2024-03")

	_, err = ASCIITimeline(nil, 40, 8)
	assert.Equal(t, errors.CodeInsufficientData, errors.GetCode(err))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType(FormatPNG))
	assert.Equal(t, "image/svg+xml", ContentType(FormatSVG))
}
