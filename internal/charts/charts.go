// Package charts renders the dashboard plots with gonum/plot and the CLI
// timeline with asciigraph.
package charts

import (
	"bytes"
	"image/color"
	"math"

	"evdash/domain/dataset"
	"evdash/internal/analysis"
	"evdash/internal/errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Supported output formats
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// Options size and encode a chart
type Options struct {
	Format string
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions returns an SVG sized for the dashboard
func DefaultOptions() Options {
	return Options{Format: FormatSVG, Width: 8 * vg.Inch, Height: 5 * vg.Inch}
}

func (o Options) normalized() (Options, error) {
	def := DefaultOptions()
	if o.Format == "" {
		o.Format = def.Format
	}
	if o.Format != FormatSVG && o.Format != FormatPNG {
		return o, errors.InvalidInput("unsupported chart format: " + o.Format)
	}
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	return o, nil
}

// ContentType returns the MIME type for a chart format
func ContentType(format string) string {
	if format == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

var seriesColors = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
}

var (
	pointColor = color.RGBA{R: 31, G: 119, B: 180, A: 200}
	lineColor  = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Scatter plots registrations against chargers with the fitted line drawn
// across the observed charger range. A nil fit draws points only.
func Scatter(obs []dataset.Observation, fit *analysis.Fit, opts Options) ([]byte, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}

	points := make(plotter.XYs, 0, len(obs))
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, o := range obs {
		if math.IsNaN(o.Chargers) || math.IsNaN(o.Registrations) {
			continue
		}
		points = append(points, plotter.XY{X: o.Chargers, Y: o.Registrations})
		minX = math.Min(minX, o.Chargers)
		maxX = math.Max(maxX, o.Chargers)
	}
	if len(points) == 0 {
		return nil, errors.InsufficientData("no observations to plot")
	}

	p := plot.New()
	p.Title.Text = "EV registrations vs. chargers"
	p.X.Label.Text = "Chargers"
	p.Y.Label.Text = "EV registrations"
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build scatter")
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(scatter)
	p.Legend.Add("regions", scatter)

	if fit != nil {
		line := plotter.NewFunction(fit.Predict)
		line.XMin, line.XMax = minX, maxX
		line.Color = lineColor
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add("y = a + b·x", line)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	return encode(p, opts)
}

// Timeline draws one line per series over the monthly periods
func Timeline(points []dataset.TimelinePoint, opts Options) ([]byte, error) {
	opts, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, errors.InsufficientData("no dated observations to plot")
	}

	p := plot.New()
	p.Title.Text = "Monthly totals"
	p.X.Label.Text = "Month"
	p.Y.Label.Text = "Count"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01"}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, s := range timelineSeries(points) {
		xys := make(plotter.XYs, len(points))
		for j, pt := range points {
			xys[j] = plotter.XY{X: float64(pt.Period.Unix()), Y: s.values[j]}
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build %s line", s.name)
		}
		line.Color = seriesColors[i%len(seriesColors)]
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	return encode(p, opts)
}

type series struct {
	name   string
	values []float64
}

func timelineSeries(points []dataset.TimelinePoint) []series {
	out := []series{
		{name: "registrations"},
		{name: "chargers"},
		{name: "slow chargers"},
		{name: "fast chargers"},
	}
	for _, pt := range points {
		out[0].values = append(out[0].values, pt.Registrations)
		out[1].values = append(out[1].values, pt.Chargers)
		out[2].values = append(out[2].values, pt.SlowChargers)
		out[3].values = append(out[3].values, pt.FastChargers)
	}

	// Slow/fast lines only help when the split was present
	var split float64
	for _, pt := range points {
		split += pt.SlowChargers + pt.FastChargers
	}
	if split == 0 {
		return out[:2]
	}
	return out
}

func encode(p *plot.Plot, opts Options) ([]byte, error) {
	writer, err := p.WriterTo(opts.Width, opts.Height, opts.Format)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create plot writer")
	}
	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "failed to write plot")
	}
	return buf.Bytes(), nil
}
