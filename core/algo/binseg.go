package algo

import (
	"errors"
	"fmt"
	"slices"
)

// ErrEmptySeries is returned when there is nothing to segment.
var ErrEmptySeries = errors.New("series has no values")

// Bounds is the half-open index range [Start, End) of one segment.
type Bounds struct {
	Start int
	End   int
}

// Len returns the number of samples in the range.
func (b Bounds) Len() int {
	return b.End - b.Start
}

// split is the best single breakpoint found inside a segment.
type split struct {
	bkp  int
	gain float64
	ok   bool
}

// Binseg performs greedy binary segmentation. Each step splits the segment
// whose best breakpoint gives the largest cost reduction, so the breakpoints
// for n are always the first n greedy picks.
type Binseg struct {
	cost    Cost
	n       int
	jump    int
	minSize int

	picks   []int
	stopped bool
	cache   map[Bounds]split
}

// NewBinseg prepares a segmentation of values with the given cost model.
func NewBinseg(values []float64, cost Cost, jump, minSize int) (*Binseg, error) {
	if len(values) == 0 {
		return nil, ErrEmptySeries
	}
	if jump < 1 {
		return nil, fmt.Errorf("jump must be at least 1 (received %d)", jump)
	}
	if minSize < 1 {
		return nil, fmt.Errorf("min size must be at least 1 (received %d)", minSize)
	}
	return &Binseg{
		cost:    cost,
		n:       len(values),
		jump:    jump,
		minSize: max(minSize, cost.MinSize()),
		cache:   make(map[Bounds]split),
	}, nil
}

// Feasible reports whether nBkps breakpoints can be admitted at all given the
// series length, jump and minimum segment size. Each breakpoint needs
// minSize samples rounded up to the jump grid, plus minSize for the tail.
func (b *Binseg) Feasible(nBkps int) bool {
	if nBkps < 1 {
		return false
	}
	if nBkps > b.n/b.jump {
		return false
	}
	step := (b.minSize + b.jump - 1) / b.jump * b.jump
	return nBkps*step+b.minSize <= b.n
}

// Predict returns up to nBkps interior breakpoints in increasing order.
// Fewer are returned when no admissible split remains.
func (b *Binseg) Predict(nBkps int) []int {
	for len(b.picks) < nBkps && !b.stopped {
		b.step()
	}
	out := slices.Clone(b.picks[:min(nBkps, len(b.picks))])
	slices.Sort(out)
	return out
}

// step adds the next greedy breakpoint or marks the search as stopped.
func (b *Binseg) step() {
	bounds := SegmentBounds(b.n, b.picks)

	var best split
	for i, seg := range bounds {
		s := b.bestSplit(seg)
		// First segment wins ties, including ties with segments that have no
		// admissible split at all.
		if i == 0 || s.gain > best.gain {
			best = s
		}
	}
	if !best.ok {
		b.stopped = true
		return
	}
	b.picks = append(b.picks, best.bkp)
}

// bestSplit finds the breakpoint inside seg with the largest gain. Ties go to
// the later breakpoint.
func (b *Binseg) bestSplit(seg Bounds) split {
	if s, ok := b.cache[seg]; ok {
		return s
	}
	total := b.cost.Error(seg.Start, seg.End)
	var best split
	for bkp := seg.Start; bkp < seg.End; bkp += b.jump {
		if bkp-seg.Start < b.minSize || seg.End-bkp < b.minSize {
			continue
		}
		gain := total - b.cost.Error(seg.Start, bkp) - b.cost.Error(bkp, seg.End)
		if !best.ok || gain >= best.gain {
			best = split{bkp: bkp, gain: gain, ok: true}
		}
	}
	b.cache[seg] = best
	return best
}

// SegmentBounds partitions [0, n) at the given breakpoints. Breakpoints are
// sorted and clamped to [0, n] first, so duplicates and a trailing n simply
// produce empty ranges and the lengths always sum to n.
func SegmentBounds(n int, breakpoints []int) []Bounds {
	cuts := make([]int, 0, len(breakpoints))
	for _, bp := range breakpoints {
		cuts = append(cuts, min(max(bp, 0), n))
	}
	slices.Sort(cuts)

	out := make([]Bounds, 0, len(cuts)+1)
	start := 0
	for _, c := range cuts {
		out = append(out, Bounds{Start: start, End: c})
		start = c
	}
	return append(out, Bounds{Start: start, End: n})
}
