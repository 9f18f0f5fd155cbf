package algo

import (
	"testing"

	"github.com/huangsam/hockeystick/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hinge returns a flat run that turns into a straight ramp at index knee.
func hinge(n, knee int, level, slope float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = level
		if i >= knee {
			values[i] = level + slope*float64(i-knee)
		}
	}
	return values
}

func TestSegmentBounds(t *testing.T) {
	tests := []struct {
		name        string
		n           int
		breakpoints []int
		expected    []Bounds
	}{
		{
			name:        "no breakpoints",
			n:           10,
			breakpoints: nil,
			expected:    []Bounds{{0, 10}},
		},
		{
			name:        "interior breakpoints",
			n:           10,
			breakpoints: []int{3, 7},
			expected:    []Bounds{{0, 3}, {3, 7}, {7, 10}},
		},
		{
			name:        "trailing length",
			n:           10,
			breakpoints: []int{3, 10},
			expected:    []Bounds{{0, 3}, {3, 10}, {10, 10}},
		},
		{
			name:        "duplicates",
			n:           10,
			breakpoints: []int{4, 4},
			expected:    []Bounds{{0, 4}, {4, 4}, {4, 10}},
		},
		{
			name:        "out of range and unsorted",
			n:           10,
			breakpoints: []int{12, -1},
			expected:    []Bounds{{0, 0}, {0, 10}, {10, 10}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SegmentBounds(tt.n, tt.breakpoints)
			assert.Equal(t, tt.expected, got)

			total := 0
			for _, b := range got {
				assert.GreaterOrEqual(t, b.Len(), 0)
				total += b.Len()
			}
			assert.Equal(t, tt.n, total, "segment lengths must cover the series")
		})
	}
}

func TestCosts(t *testing.T) {
	values := []float64{1, 3, 5, 7, 9, 2, 2, 2}

	t.Run("l2 matches squared deviation", func(t *testing.T) {
		c, err := NewCost(schema.L2Cost, values)
		require.NoError(t, err)
		// mean of 1,3,5,7,9 is 5 -> 16+4+0+4+16
		assert.InDelta(t, 40.0, c.Error(0, 5), 1e-9)
		assert.InDelta(t, 0.0, c.Error(5, 8), 1e-9)
		assert.Equal(t, 0.0, c.Error(3, 3))
	})

	t.Run("linear is zero on a straight run", func(t *testing.T) {
		c, err := NewCost(schema.LinearCost, values)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, c.Error(0, 5), 1e-9)
		assert.InDelta(t, 0.0, c.Error(5, 8), 1e-9)
		assert.Greater(t, c.Error(0, 8), 1.0)
	})

	t.Run("unknown model", func(t *testing.T) {
		_, err := NewCost("quadratic", values)
		assert.Error(t, err)
	})
}

func TestBinseg(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		_, err := NewBinseg(nil, newL2Cost(nil), 5, 2)
		assert.ErrorIs(t, err, ErrEmptySeries)
	})

	t.Run("invalid jump", func(t *testing.T) {
		values := []float64{1, 2, 3}
		_, err := NewBinseg(values, newL2Cost(values), 0, 2)
		assert.Error(t, err)
	})

	t.Run("mean shift", func(t *testing.T) {
		values := make([]float64, 40)
		for i := 20; i < 40; i++ {
			values[i] = 10
		}
		bs, err := NewBinseg(values, newL2Cost(values), 5, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{20}, bs.Predict(1))
	})

	t.Run("slope change with linear cost", func(t *testing.T) {
		values := hinge(100, 50, 10, 5)
		bs, err := NewBinseg(values, newLinearCost(values), 5, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{50}, bs.Predict(1))
	})

	t.Run("ties go to the later breakpoint", func(t *testing.T) {
		values := make([]float64, 20)
		for i := range values {
			values[i] = 3
		}
		bs, err := NewBinseg(values, newL2Cost(values), 5, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{15}, bs.Predict(1))
	})

	t.Run("results are nested", func(t *testing.T) {
		values := []float64{1, 1, 1, 1, 1, 9, 9, 9, 9, 9, 4, 4, 4, 4, 4, 0, 0, 0, 0, 0}
		bs, err := NewBinseg(values, newL2Cost(values), 1, 2)
		require.NoError(t, err)

		one := bs.Predict(1)
		two := bs.Predict(2)
		three := bs.Predict(3)
		require.Len(t, one, 1)
		require.Len(t, two, 2)
		require.Len(t, three, 3)
		assert.Subset(t, two, one)
		assert.Subset(t, three, two)
		assert.Equal(t, []int{5, 10, 15}, three)
	})

	t.Run("stops when no split is admissible", func(t *testing.T) {
		values := []float64{1, 2, 3, 4, 5, 6}
		bs, err := NewBinseg(values, newL2Cost(values), 1, 3)
		require.NoError(t, err)
		assert.Equal(t, []int{3}, bs.Predict(4))
	})

	t.Run("feasibility", func(t *testing.T) {
		values := make([]float64, 10)
		bs, err := NewBinseg(values, newL2Cost(values), 5, 2)
		require.NoError(t, err)
		assert.False(t, bs.Feasible(0))
		assert.True(t, bs.Feasible(1))
		// 2*5 + 2 > 10
		assert.False(t, bs.Feasible(2))

		bs, err = NewBinseg(values, newL2Cost(values), 1, 2)
		require.NoError(t, err)
		assert.True(t, bs.Feasible(4))
		assert.False(t, bs.Feasible(5))

		values = make([]float64, 20)
		bs, err = NewBinseg(values, newL2Cost(values), 5, 2)
		require.NoError(t, err)
		assert.True(t, bs.Feasible(3))
		assert.False(t, bs.Feasible(4))

		bs, err = NewBinseg(values, newL2Cost(values), 2, 5)
		require.NoError(t, err)
		// min size 5 rounds up to 6 on a jump of 2
		assert.True(t, bs.Feasible(2))
		assert.False(t, bs.Feasible(3))
	})
}
