package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitSegment(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 2 + 3*float64(i)
	}

	t.Run("exact line", func(t *testing.T) {
		m := FitSegment(values, 10, 20)
		assert.Equal(t, 10, m.Start)
		assert.Equal(t, 20, m.End)
		assert.Equal(t, 10, m.N)
		assert.InDelta(t, 2.0, m.Intercept, 1e-9)
		assert.InDelta(t, 3.0, m.Slope, 1e-9)
		assert.InDelta(t, 0.0, m.SSR, 1e-9)
		assert.InDelta(t, m.Intercept+m.Slope*10, m.Predict(10), 1e-12)
		assert.InDelta(t, values[10], m.Predict(10), 1e-9)
		assert.False(t, math.IsInf(m.AIC, 0), "exact fits must keep a finite AIC")
	})

	t.Run("single point", func(t *testing.T) {
		m := FitSegment(values, 4, 5)
		assert.Equal(t, 1, m.N)
		assert.Equal(t, values[4], m.Intercept)
		assert.Equal(t, 0.0, m.Slope)
		assert.False(t, math.IsNaN(m.AIC))
	})

	t.Run("noisy segment", func(t *testing.T) {
		noisy := []float64{1, 3, 2, 4, 3, 5}
		m := FitSegment(noisy, 0, len(noisy))
		assert.Greater(t, m.SSR, 0.0)
		assert.InDelta(t, 0.6286, m.Slope, 1e-3)
	})
}

func TestAIC(t *testing.T) {
	// sigma2 = 1, so llf = -n/2 * (log(2*pi) + 1)
	expected := 4*(math.Log(2*math.Pi)+1) + 4
	assert.InDelta(t, expected, aic(4, 4, 2), 1e-9)
	assert.InDelta(t, 15.3515, aic(4, 4, 2), 1e-4)

	// zero residuals are floored instead of diverging
	assert.Equal(t, aic(0, 10, 2), aic(1e-20, 10, 2))
}

func TestFitPiecewise(t *testing.T) {
	values := hinge(40, 20, 4, 2)

	t.Run("one model per non-empty segment", func(t *testing.T) {
		models, bounds := FitPiecewise(values, []int{0, 20, 20, 40})
		require.Len(t, models, 2)

		total := 0
		for _, b := range bounds {
			total += b.Len()
		}
		assert.Equal(t, len(values), total)

		assert.Equal(t, 0, models[0].Start)
		assert.Equal(t, 20, models[0].End)
		assert.InDelta(t, 0.0, models[0].Slope, 1e-9)
		assert.InDelta(t, 4.0, models[0].Intercept, 1e-9)

		assert.Equal(t, 20, models[1].Start)
		assert.Equal(t, 40, models[1].End)
		assert.InDelta(t, 2.0, models[1].Slope, 1e-9)
	})

	t.Run("prediction at segment start", func(t *testing.T) {
		models, _ := FitPiecewise(values, []int{13, 27})
		for _, m := range models {
			pred := m.PredictRange(m.Start, m.End)
			require.Len(t, pred, m.Len())
			assert.InDelta(t, m.Intercept+m.Slope*float64(m.Start), pred[0], 1e-9)
		}
	})

	t.Run("no breakpoints", func(t *testing.T) {
		models, bounds := FitPiecewise(values, nil)
		assert.Len(t, models, 1)
		assert.Len(t, bounds, 1)
	})

	t.Run("empty series", func(t *testing.T) {
		models, bounds := FitPiecewise(nil, []int{3})
		assert.Empty(t, models)
		for _, b := range bounds {
			assert.Equal(t, 0, b.Len())
		}
	})
}
