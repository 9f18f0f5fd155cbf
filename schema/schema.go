// Package schema has the models and constants shared by all parts of hockeystick.
package schema

import "time"

// Point is a single observation in a trends series.
type Point struct {
	Time    time.Time `json:"time"`
	Value   float64   `json:"value"`
	Missing bool      `json:"missing,omitempty"`
}

// Series is the chronological interest-over-time data for one topic.
// It is never mutated after it has been fetched.
type Series struct {
	Topic     string  `json:"topic"`
	Timeframe string  `json:"timeframe,omitempty"`
	Points    []Point `json:"points"`
}

// Len returns the number of points including missing ones.
func (s Series) Len() int {
	return len(s.Points)
}

// Empty reports whether the series has no usable values.
func (s Series) Empty() bool {
	for _, p := range s.Points {
		if !p.Missing {
			return false
		}
	}
	return true
}

// Values returns the series values with missing points dropped.
func (s Series) Values() []float64 {
	out := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		if !p.Missing {
			out = append(out, p.Value)
		}
	}
	return out
}

// Times returns the timestamps matching Values.
func (s Series) Times() []time.Time {
	out := make([]time.Time, 0, len(s.Points))
	for _, p := range s.Points {
		if !p.Missing {
			out = append(out, p.Time)
		}
	}
	return out
}

// Span returns the first and last timestamps of the series.
func (s Series) Span() (time.Time, time.Time) {
	if len(s.Points) == 0 {
		return time.Time{}, time.Time{}
	}
	return s.Points[0].Time, s.Points[len(s.Points)-1].Time
}

// SeriesSummary describes one fetched series for the fetch command.
type SeriesSummary struct {
	Topic   string    `json:"topic"`
	Points  int       `json:"points"`
	Missing int       `json:"missing"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Mean    float64   `json:"mean"`
	File    string    `json:"file,omitempty"`
}
