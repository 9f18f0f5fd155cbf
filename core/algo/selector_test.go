package algo

import (
	"math"
	"math/rand"
	"testing"

	"github.com/huangsam/hockeystick/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPenalty(t *testing.T) {
	opts := DefaultSelectOptions()

	// sample stddev of 1..5 is sqrt(2.5)
	expected := math.Sqrt(2.5) * 0.5 * math.Pow(5, 0.2) * 1.0
	assert.InDelta(t, expected, Penalty([]float64{1, 2, 3, 4, 5}, opts), 1e-12)
	assert.InDelta(t, 1.0908, Penalty([]float64{1, 2, 3, 4, 5}, opts), 1e-4)

	assert.Equal(t, 0.0, Penalty([]float64{7}, opts))
	assert.Equal(t, 0.0, Penalty(nil, opts))

	opts.ConstantFactor = 2
	assert.InDelta(t, 2*expected, Penalty([]float64{1, 2, 3, 4, 5}, opts), 1e-12)
}

func TestFirstMinimum(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected int
	}{
		{"single", []float64{3}, 0},
		{"strict minimum", []float64{5, 2, 4}, 1},
		{"tie keeps earliest", []float64{5, 2, 2, 3}, 1},
		{"all equal", []float64{1, 1, 1}, 0},
		{"minimum at end", []float64{4, 3, 2, 1}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, firstMinimum(tt.scores))
		})
	}
}

func TestSelectOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SelectOptions)
	}{
		{"zero max bkps", func(o *SelectOptions) { o.MaxBkps = 0 }},
		{"zero jump", func(o *SelectOptions) { o.Jump = 0 }},
		{"zero min size", func(o *SelectOptions) { o.MinSize = 0 }},
		{"unknown cost", func(o *SelectOptions) { o.Cost = "rbf" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultSelectOptions()
			tt.mutate(&opts)
			assert.Error(t, opts.Validate())
		})
	}
	assert.NoError(t, DefaultSelectOptions().Validate())
}

func TestSelectBreakpoints(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		_, err := SelectBreakpoints(nil, DefaultSelectOptions())
		assert.ErrorIs(t, err, ErrEmptySeries)
	})

	t.Run("slope change at 50", func(t *testing.T) {
		opts := DefaultSelectOptions()
		opts.MaxBkps = 3

		seg, err := SelectBreakpoints(hinge(100, 50, 10, 5), opts)
		require.NoError(t, err)

		assert.Equal(t, []int{50}, seg.Breakpoints)
		require.Len(t, seg.Models, 2)
		assert.InDelta(t, 0.0, seg.Models[0].Slope, 1e-6)
		assert.InDelta(t, 5.0, seg.Models[1].Slope, 1e-6)
		assert.Len(t, seg.Scores, 3)
		assert.Equal(t, seg.Scores[0], seg.Score)
		assert.Greater(t, seg.Penalty, 0.0)
	})

	t.Run("straight line keeps a single breakpoint", func(t *testing.T) {
		values := make([]float64, 100)
		for i := range values {
			values[i] = 3 + 2*float64(i)
		}
		seg, err := SelectBreakpoints(values, DefaultSelectOptions())
		require.NoError(t, err)

		assert.Len(t, seg.Breakpoints, 1)
		assert.Equal(t, seg.Scores[0], seg.Score)
		for _, m := range seg.Models {
			assert.InDelta(t, 2.0, m.Slope, 1e-6)
		}
	})

	t.Run("two slopes off the jump grid", func(t *testing.T) {
		values := make([]float64, 100)
		for i := range values {
			if i < 37 {
				values[i] = 2 * float64(i)
			} else {
				values[i] = 70 - 3*float64(i-37)
			}
		}
		seg, err := SelectBreakpoints(values, DefaultSelectOptions())
		require.NoError(t, err)

		near := false
		for _, bp := range seg.Breakpoints {
			if bp >= 37-DefaultJump && bp <= 37+DefaultJump {
				near = true
			}
		}
		assert.True(t, near, "expected a breakpoint near 37, got %v", seg.Breakpoints)

		// The junction value lies on the right-hand line only. Were it shared by
		// both lines, 37 and 38 would tie and the later split would win.
		opts := DefaultSelectOptions()
		opts.Jump = 1
		seg, err = SelectBreakpoints(values, opts)
		require.NoError(t, err)
		assert.Equal(t, []int{37}, seg.Breakpoints)
	})

	t.Run("shared junction value ties to the later split", func(t *testing.T) {
		values := make([]float64, 100)
		for i := range values {
			if i < 37 {
				values[i] = 2 * float64(i)
			} else {
				values[i] = 74 - 3*float64(i-37)
			}
		}
		opts := DefaultSelectOptions()
		opts.Jump = 1
		seg, err := SelectBreakpoints(values, opts)
		require.NoError(t, err)
		assert.Equal(t, []int{38}, seg.Breakpoints)
	})

	t.Run("l2 cost on a mean shift", func(t *testing.T) {
		values := make([]float64, 60)
		for i := 30; i < 60; i++ {
			values[i] = 40
		}
		opts := DefaultSelectOptions()
		opts.Cost = schema.L2Cost
		seg, err := SelectBreakpoints(values, opts)
		require.NoError(t, err)
		assert.Contains(t, seg.Breakpoints, 30)
	})

	t.Run("breakpoints are strictly increasing and bounded", func(t *testing.T) {
		rng := rand.New(rand.NewSource(42))
		for trial := 0; trial < 20; trial++ {
			values := make([]float64, 60+trial)
			level := 0.0
			for i := range values {
				if rng.Intn(15) == 0 {
					level += rng.Float64()*20 - 10
				}
				values[i] = level + rng.NormFloat64()
			}

			seg, err := SelectBreakpoints(values, DefaultSelectOptions())
			require.NoError(t, err)
			assert.LessOrEqual(t, len(seg.Breakpoints), DefaultMaxBkps)
			for i, bp := range seg.Breakpoints {
				assert.Greater(t, bp, 0)
				assert.Less(t, bp, len(values))
				if i > 0 {
					assert.Greater(t, bp, seg.Breakpoints[i-1])
				}
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		values := hinge(80, 33, 1, 0.7)
		values[10] += 3
		values[60] -= 2

		first, err := SelectBreakpoints(values, DefaultSelectOptions())
		require.NoError(t, err)
		second, err := SelectBreakpoints(values, DefaultSelectOptions())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("too short for any breakpoint", func(t *testing.T) {
		seg, err := SelectBreakpoints([]float64{1, 2, 4}, DefaultSelectOptions())
		require.NoError(t, err)
		assert.Empty(t, seg.Breakpoints)
		assert.Empty(t, seg.Scores)
		require.Len(t, seg.Models, 1)
		assert.Equal(t, 3, seg.Models[0].N)
		assert.Equal(t, seg.Models[0].AIC, seg.Score)
	})

	t.Run("fewer candidates than requested", func(t *testing.T) {
		opts := DefaultSelectOptions()
		opts.MaxBkps = 10
		seg, err := SelectBreakpoints(hinge(20, 10, 0, 1), opts)
		require.NoError(t, err)
		// 20 samples with jump 5 and min size 2 admit at most 3 breakpoints
		assert.Len(t, seg.Scores, 3)
		assert.LessOrEqual(t, len(seg.Breakpoints), 3)
	})
}
