package analysis

import (
	"math"

	"evdash/internal/errors"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Fit is a single-predictor least-squares fit y = Intercept + Slope*x
type Fit struct {
	N         int     `json:"n"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	PearsonR  float64 `json:"pearson_r"`
	PValue    float64 `json:"p_value"`
	Strength  string  `json:"strength"`
}

// Predict evaluates the fitted line at x
func (f *Fit) Predict(x float64) float64 {
	return f.Intercept + f.Slope*x
}

func checkPair(x, y []float64) error {
	if len(x) != len(y) {
		return errors.Newf(errors.CodeInsufficientData, "series lengths differ: %d vs %d", len(x), len(y))
	}
	if len(x) < 2 {
		return errors.Newf(errors.CodeInsufficientData, "need at least 2 observations, got %d", len(x))
	}
	if stat.Variance(x, nil) == 0 {
		return errors.InvalidInput("x has zero variance")
	}
	return nil
}

// Pearson returns the Pearson correlation coefficient of x and y
func Pearson(x, y []float64) (float64, error) {
	if err := checkPair(x, y); err != nil {
		return 0, err
	}
	if stat.Variance(y, nil) == 0 {
		return 0, errors.InvalidInput("y has zero variance")
	}
	return stat.Correlation(x, y, nil), nil
}

// FitLinear regresses y on x by ordinary least squares. Either series being
// constant is rejected.
func FitLinear(x, y []float64) (*Fit, error) {
	r, err := Pearson(x, y)
	if err != nil {
		return nil, err
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	fit := &Fit{
		N:         len(x),
		Slope:     slope,
		Intercept: intercept,
		RSquared:  stat.RSquared(x, y, nil, intercept, slope),
		PearsonR:  r,
		PValue:    correlationPValue(r, len(x)),
		Strength:  Strength(r),
	}
	return fit, nil
}

// correlationPValue is the two-sided p-value of H0: r = 0 with n-2 degrees of freedom
func correlationPValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * (1 - dist.CDF(math.Abs(t)))
}

// StrengthBand labels correlations with |r| at or above Min
type StrengthBand struct {
	Min   float64
	Label string
}

// StrengthBands are ordered from the strongest band down; |r| below the last
// band is negligible
var StrengthBands = []StrengthBand{
	{Min: 0.7, Label: "strong"},
	{Min: 0.4, Label: "moderate"},
	{Min: 0.2, Label: "weak"},
}

// Strength labels |r| with its band and sign
func Strength(r float64) string {
	direction := "positive"
	if r < 0 {
		direction = "negative"
	}
	a := math.Abs(r)
	for _, band := range StrengthBands {
		if a >= band.Min {
			return band.Label + " " + direction
		}
	}
	return "negligible"
}
