package algo

import (
	"math"

	"github.com/huangsam/hockeystick/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// minSigma2 keeps the log-likelihood finite for segments that fit exactly.
const minSigma2 = 1e-12

// FitPiecewise fits one least squares line per non-empty segment. It returns
// the models in segment order alongside every segment's bounds, including the
// empty ones.
func FitPiecewise(values []float64, breakpoints []int) ([]schema.SegmentModel, []Bounds) {
	bounds := SegmentBounds(len(values), breakpoints)
	models := make([]schema.SegmentModel, 0, len(bounds))
	for _, b := range bounds {
		if b.Len() == 0 {
			continue
		}
		models = append(models, FitSegment(values, b.Start, b.End))
	}
	return models, bounds
}

// FitSegment regresses values[start:end] against their indices.
func FitSegment(values []float64, start, end int) schema.SegmentModel {
	ys := values[start:end]
	n := len(ys)
	m := schema.SegmentModel{Start: start, End: end, N: n}

	if n == 1 {
		m.Intercept = ys[0]
		m.AIC = aic(0, n, 1)
		return m
	}

	xs := make([]float64, n)
	floats.Span(xs, float64(start), float64(end-1))

	m.Intercept, m.Slope = stat.LinearRegression(xs, ys, nil, false)

	residuals := make([]float64, n)
	for i, x := range xs {
		residuals[i] = ys[i] - (m.Intercept + m.Slope*x)
	}
	m.SSR = floats.Dot(residuals, residuals)
	m.AIC = aic(m.SSR, n, 2)
	return m
}

// aic is the Akaike information criterion of a Gaussian OLS fit with k
// parameters and residual sum of squares ssr over n observations.
func aic(ssr float64, n, k int) float64 {
	nf := float64(n)
	sigma2 := math.Max(ssr/nf, minSigma2)
	llf := -nf / 2 * (math.Log(2*math.Pi) + math.Log(sigma2) + 1)
	return -2*llf + 2*float64(k)
}
