// Package algo holds the change-point detection and regression math used by the
// analysis pipeline. Everything here is pure and deterministic.
package algo

import (
	"fmt"

	"github.com/huangsam/hockeystick/schema"
)

// Cost measures how badly a single model explains values[start:end].
type Cost interface {
	// Error returns the cost of the half-open segment [start, end).
	Error(start, end int) float64

	// MinSize is the smallest segment the cost can evaluate meaningfully.
	MinSize() int
}

// NewCost builds the prefix-sum backed cost for the given model.
func NewCost(model schema.CostModel, values []float64) (Cost, error) {
	switch model {
	case schema.L2Cost:
		return newL2Cost(values), nil
	case schema.LinearCost, "":
		return newLinearCost(values), nil
	default:
		return nil, fmt.Errorf("unsupported cost model: %s", model)
	}
}

// l2Cost is the squared deviation from the segment mean.
type l2Cost struct {
	sum   []float64
	sumSq []float64
}

func newL2Cost(values []float64) *l2Cost {
	c := &l2Cost{
		sum:   make([]float64, len(values)+1),
		sumSq: make([]float64, len(values)+1),
	}
	for i, v := range values {
		c.sum[i+1] = c.sum[i] + v
		c.sumSq[i+1] = c.sumSq[i] + v*v
	}
	return c
}

func (c *l2Cost) Error(start, end int) float64 {
	n := float64(end - start)
	if n <= 0 {
		return 0
	}
	s := c.sum[end] - c.sum[start]
	sq := c.sumSq[end] - c.sumSq[start]
	return nonNegative(sq - s*s/n)
}

func (c *l2Cost) MinSize() int { return 2 }

// linearCost is the residual sum of squares of a least squares line fitted
// against the sample index.
type linearCost struct {
	sx, sy, sxx, sxy, syy []float64
}

func newLinearCost(values []float64) *linearCost {
	n := len(values) + 1
	c := &linearCost{
		sx:  make([]float64, n),
		sy:  make([]float64, n),
		sxx: make([]float64, n),
		sxy: make([]float64, n),
		syy: make([]float64, n),
	}
	for i, v := range values {
		x := float64(i)
		c.sx[i+1] = c.sx[i] + x
		c.sy[i+1] = c.sy[i] + v
		c.sxx[i+1] = c.sxx[i] + x*x
		c.sxy[i+1] = c.sxy[i] + x*v
		c.syy[i+1] = c.syy[i] + v*v
	}
	return c
}

func (c *linearCost) Error(start, end int) float64 {
	n := float64(end - start)
	if n <= 0 {
		return 0
	}
	sx := c.sx[end] - c.sx[start]
	sy := c.sy[end] - c.sy[start]
	sxx := c.sxx[end] - c.sxx[start] - sx*sx/n
	sxy := c.sxy[end] - c.sxy[start] - sx*sy/n
	syy := c.syy[end] - c.syy[start] - sy*sy/n
	if sxx <= 0 {
		return nonNegative(syy)
	}
	return nonNegative(syy - sxy*sxy/sxx)
}

func (c *linearCost) MinSize() int { return 2 }

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
