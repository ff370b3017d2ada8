// Package commentary renders the interpretation notes shown beside the charts.
package commentary

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"evdash/internal/analysis"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const guideNotes = `
A strong positive r means regions with more chargers also register more
electric vehicles. It does not say which one drives the other.

The **vehicles per charger** column divides registrations by the total
charger count. Regions without any charger show no ratio.
`

// Guide is the reading guide for the correlation coefficient, built from
// the same bands that label the fit
func Guide() string {
	var b strings.Builder
	b.WriteString("### Reading the correlation\n\n")
	b.WriteString("| Pearson r, either sign | Interpretation |\n|---|---|\n")
	upper := 0.0
	for i, band := range analysis.StrengthBands {
		if i == 0 {
			fmt.Fprintf(&b, "| %.1f ≤ r | %s relationship |\n", band.Min, band.Label)
		} else {
			fmt.Fprintf(&b, "| %.1f ≤ r < %.1f | %s relationship |\n", band.Min, upper, band.Label)
		}
		upper = band.Min
	}
	fmt.Fprintf(&b, "| r < %.1f | negligible |\n", upper)
	b.WriteString(guideNotes)
	return b.String()
}

// Markdown returns the guide followed by a reading of the computed fit
func Markdown(fit *analysis.Fit) string {
	var b strings.Builder
	b.WriteString(Guide())
	b.WriteString("\n### This dataset\n\n")
	if fit == nil {
		b.WriteString("The regression could not be computed for this dataset.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Across **%d** observations, r = **%.3f** (%s, p = %.3g). ", fit.N, fit.PearsonR, fit.Strength, fit.PValue)
	fmt.Fprintf(&b, "Each additional charger goes with about **%.1f** more registered vehicles ", fit.Slope)
	fmt.Fprintf(&b, "(intercept %.1f), and the line explains %.1f%% of the variance (R² = %.3f).\n",
		fit.Intercept, fit.RSquared*100, fit.RSquared)
	return b.String()
}

// ToHTML renders markdown with tables enabled. A parser keeps state, so one
// is built per call.
func ToHTML(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	out := markdown.ToHTML([]byte(md), p, renderer)
	return template.HTML(bytes.TrimSpace(out))
}

// Render is Markdown followed by ToHTML
func Render(fit *analysis.Fit) template.HTML {
	return ToHTML(Markdown(fit))
}
