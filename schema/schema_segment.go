package schema

// SegmentModel is an ordinary least squares line fitted over the half-open
// index range [Start, End) of a series.
type SegmentModel struct {
	Start     int     `json:"start"`
	End       int     `json:"end"`
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	SSR       float64 `json:"ssr"`
	N         int     `json:"n"`
	AIC       float64 `json:"aic"`
}

// Predict evaluates the fitted line at index x.
func (m SegmentModel) Predict(x float64) float64 {
	return m.Intercept + m.Slope*x
}

// PredictRange evaluates the fitted line at every index in [start, end).
func (m SegmentModel) PredictRange(start, end int) []float64 {
	if end <= start {
		return nil
	}
	out := make([]float64, 0, end-start)
	for x := start; x < end; x++ {
		out = append(out, m.Predict(float64(x)))
	}
	return out
}

// Len returns the number of observations the segment covers.
func (m SegmentModel) Len() int {
	return m.End - m.Start
}

// Segmentation is the result of change-point selection for one series.
type Segmentation struct {
	Breakpoints []int          `json:"breakpoints"`
	Models      []SegmentModel `json:"models"`
	Score       float64        `json:"score"`
	Penalty     float64        `json:"penalty"`
	Scores      []float64      `json:"scores"` // Scores[i] is the penalized score for i+1 breakpoints
}

// TotalAIC sums the AIC of every fitted segment.
func (s Segmentation) TotalAIC() float64 {
	total := 0.0
	for _, m := range s.Models {
		total += m.AIC
	}
	return total
}

// TopicAnalysis bundles everything computed for one topic.
type TopicAnalysis struct {
	Topic        string       `json:"topic"`
	Series       Series       `json:"-"`
	Segmentation Segmentation `json:"segmentation"`
	Skipped      bool         `json:"skipped,omitempty"`
	Reason       string       `json:"reason,omitempty"`
}

// SegmentRow is the flat, presentation-friendly view of a fitted segment.
type SegmentRow struct {
	Topic       string     `json:"topic"`
	Segment     int        `json:"segment"`
	StartDate   string     `json:"start_date"`
	EndDate     string     `json:"end_date"`
	StartIndex  int        `json:"start_index"`
	EndIndex    int        `json:"end_index"`
	Points      int        `json:"points"`
	Intercept   float64    `json:"intercept"`
	Slope       float64    `json:"slope"`
	AIC         float64    `json:"aic"`
	SSR         float64    `json:"ssr"`
	Breakpoints int        `json:"breakpoints"`
	Label       TrendLabel `json:"label"`
}

// ClassifySlope maps a per-step slope to a trend label.
func ClassifySlope(slope float64) TrendLabel {
	switch {
	case slope >= 1.0:
		return SurgingTrend
	case slope >= 0.1:
		return GrowingTrend
	case slope > -0.1:
		return FlatTrend
	default:
		return DecliningTrend
	}
}

// BuildSegmentRows flattens analyses into per-segment rows, skipping topics
// that were not analyzed.
func BuildSegmentRows(analyses []TopicAnalysis) []SegmentRow {
	var rows []SegmentRow
	for _, a := range analyses {
		if a.Skipped {
			continue
		}
		times := a.Series.Times()
		for i, m := range a.Segmentation.Models {
			row := SegmentRow{
				Topic:       a.Topic,
				Segment:     i + 1,
				StartIndex:  m.Start,
				EndIndex:    m.End,
				Points:      m.Len(),
				Intercept:   m.Intercept,
				Slope:       m.Slope,
				AIC:         m.AIC,
				SSR:         m.SSR,
				Breakpoints: len(a.Segmentation.Breakpoints),
				Label:       ClassifySlope(m.Slope),
			}
			if m.Start < len(times) && m.End-1 < len(times) && m.End > m.Start {
				row.StartDate = times[m.Start].Format(DateFormat)
				row.EndDate = times[m.End-1].Format(DateFormat)
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// DateFormat is the layout used for dates in summaries and timeframes.
const DateFormat = "2006-01-02"
