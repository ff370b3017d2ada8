package charts

import (
	"evdash/domain/dataset"
	"evdash/internal/errors"

	"github.com/guptarohit/asciigraph"
)

// ASCIITimeline renders registrations and chargers per month for a terminal
func ASCIITimeline(points []dataset.TimelinePoint, width, height int) (string, error) {
	if len(points) == 0 {
		return "", errors.InsufficientData("no dated observations to plot")
	}

	registrations := make([]float64, len(points))
	chargers := make([]float64, len(points))
	for i, pt := range points {
		registrations[i] = pt.Registrations
		chargers[i] = pt.Chargers
	}

	caption := points[0].Period.Format("2006-01") + " .. " + points[len(points)-1].Period.Format("2006-01") +
		"  (red: registrations, blue: chargers)"

	graph := asciigraph.PlotMany([][]float64{registrations, chargers},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Red,
			asciigraph.Blue,
		),
	)
	return graph, nil
}
