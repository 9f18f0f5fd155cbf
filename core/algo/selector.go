package algo

import (
	"fmt"
	"math"

	"github.com/huangsam/hockeystick/schema"
	"gonum.org/v1/gonum/stat"
)

// Default selection parameters.
const (
	DefaultMaxBkps        = 5
	DefaultStddevWeight   = 0.5
	DefaultLengthFactor   = 0.2
	DefaultConstantFactor = 1.0
	DefaultJump           = 5
	DefaultMinSize        = 2
)

// SelectOptions controls change-point selection.
type SelectOptions struct {
	MaxBkps        int
	StddevWeight   float64
	LengthFactor   float64
	ConstantFactor float64
	Cost           schema.CostModel
	Jump           int
	MinSize        int
}

// DefaultSelectOptions returns the stock selection parameters.
func DefaultSelectOptions() SelectOptions {
	return SelectOptions{
		MaxBkps:        DefaultMaxBkps,
		StddevWeight:   DefaultStddevWeight,
		LengthFactor:   DefaultLengthFactor,
		ConstantFactor: DefaultConstantFactor,
		Cost:           schema.LinearCost,
		Jump:           DefaultJump,
		MinSize:        DefaultMinSize,
	}
}

// Validate checks the options for values the search cannot work with.
func (o SelectOptions) Validate() error {
	if o.MaxBkps < 1 {
		return fmt.Errorf("max breakpoints must be at least 1 (received %d)", o.MaxBkps)
	}
	if o.Jump < 1 {
		return fmt.Errorf("jump must be at least 1 (received %d)", o.Jump)
	}
	if o.MinSize < 1 {
		return fmt.Errorf("min size must be at least 1 (received %d)", o.MinSize)
	}
	if _, ok := schema.ValidCostModels[o.Cost]; !ok {
		return fmt.Errorf("invalid cost model '%s'. must be linear, l2", o.Cost)
	}
	return nil
}

// Penalty is the per-breakpoint cost added to the summed AIC:
// stddev * stddevWeight * len^lengthFactor * constantFactor.
func Penalty(values []float64, o SelectOptions) float64 {
	if len(values) < 2 {
		return 0
	}
	sd := stat.StdDev(values, nil)
	return sd * o.StddevWeight * math.Pow(float64(len(values)), o.LengthFactor) * o.ConstantFactor
}

// SelectBreakpoints picks the breakpoint count in [1, MaxBkps] that minimizes
// the summed segment AIC plus the penalty per breakpoint. Ties keep the
// smaller count.
//
// Counts the series cannot admit are not scored. When none are admissible the
// whole series is fitted as a single segment.
func SelectBreakpoints(values []float64, opts SelectOptions) (schema.Segmentation, error) {
	if len(values) == 0 {
		return schema.Segmentation{}, ErrEmptySeries
	}
	if err := opts.Validate(); err != nil {
		return schema.Segmentation{}, err
	}

	cost, err := NewCost(opts.Cost, values)
	if err != nil {
		return schema.Segmentation{}, err
	}
	bs, err := NewBinseg(values, cost, opts.Jump, opts.MinSize)
	if err != nil {
		return schema.Segmentation{}, err
	}

	penalty := Penalty(values, opts)
	result := schema.Segmentation{Penalty: penalty, Breakpoints: []int{}}

	type candidate struct {
		bkps   []int
		models []schema.SegmentModel
	}
	var candidates []candidate

	for n := 1; n <= opts.MaxBkps; n++ {
		if !bs.Feasible(n) {
			break
		}
		bkps := bs.Predict(n)
		models, _ := FitPiecewise(values, bkps)

		score := penalty * float64(n)
		for _, m := range models {
			score += m.AIC
		}
		result.Scores = append(result.Scores, score)
		candidates = append(candidates, candidate{bkps: bkps, models: models})
	}

	if len(candidates) == 0 {
		result.Models, _ = FitPiecewise(values, nil)
		result.Score = result.TotalAIC()
		return result, nil
	}

	best := firstMinimum(result.Scores)
	result.Score = result.Scores[best]
	result.Models = candidates[best].models
	if len(candidates[best].bkps) > 0 {
		result.Breakpoints = candidates[best].bkps
	}
	return result, nil
}

// firstMinimum returns the index of the smallest score. Only a strictly lower
// score moves the choice, so ties resolve to the earliest index.
func firstMinimum(scores []float64) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] < scores[best] {
			best = i
		}
	}
	return best
}
