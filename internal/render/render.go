// Package render draws change-point analyses as PNG charts using
// github.com/wcharczuk/go-chart/v2.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

// Chart geometry and labels.
const (
	Width  = 1200
	Height = 600

	CompositeTitle    = "Composite Google Trends Analysis"
	CompositeFileName = "composite_interest_analysis.png"
	CompositeXLabel   = "Year"
	CompositeYLabel   = "Interest Over Time"

	topicFileSuffix = "_change_point_analysis.png"
)

// ErrNothingToPlot is returned when none of the analyses carry data.
var ErrNothingToPlot = errors.New("no analyzed topics to plot")

// palette follows the tab10 colors so charts look like typical notebook plots.
var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
	drawing.ColorFromHex("e377c2"),
	drawing.ColorFromHex("7f7f7f"),
	drawing.ColorFromHex("bcbd22"),
	drawing.ColorFromHex("17becf"),
}

var (
	markerColor = chart.ColorRed
	gridColor   = drawing.ColorFromHex("dddddd")
)

func paletteColor(i int) drawing.Color {
	return palette[i%len(palette)]
}

// TopicChartPath returns where the chart for topic is written inside dir.
func TopicChartPath(dir, topic string) string {
	return filepath.Join(dir, contract.TopicFileName(topic)+topicFileSuffix)
}

// CompositeChartPath returns where the composite chart is written inside dir.
func CompositeChartPath(dir string) string {
	return filepath.Join(dir, CompositeFileName)
}

// TopicChart writes the per-topic chart into dir and returns its path.
func TopicChart(dir string, analysis schema.TopicAnalysis) (string, error) {
	ch, err := BuildTopicChart(analysis)
	if err != nil {
		return "", err
	}
	path := TopicChartPath(dir, analysis.Topic)
	return path, renderToFile(path, ch)
}

// CompositeChart writes the composite chart for all analyzed topics into dir
// and returns its path.
func CompositeChart(dir string, analyses []schema.TopicAnalysis) (string, error) {
	ch, err := BuildCompositeChart(analyses)
	if err != nil {
		return "", err
	}
	path := CompositeChartPath(dir)
	return path, renderToFile(path, ch)
}

// WriteTopicChart renders the per-topic chart as PNG onto w.
func WriteTopicChart(w io.Writer, analysis schema.TopicAnalysis) error {
	ch, err := BuildTopicChart(analysis)
	if err != nil {
		return err
	}
	return ch.Render(chart.PNG, w)
}

// BuildTopicChart lays out the raw series, a dashed marker at the last
// timestamp before each breakpoint and one regression line per segment.
func BuildTopicChart(analysis schema.TopicAnalysis) (chart.Chart, error) {
	values := analysis.Series.Values()
	times := analysis.Series.Times()
	if len(values) == 0 {
		return chart.Chart{}, fmt.Errorf("topic %s: %w", analysis.Topic, ErrNothingToPlot)
	}

	lo, hi := valueRange(values)
	for _, m := range analysis.Segmentation.Models {
		mlo, mhi := valueRange(m.PredictRange(m.Start, m.End))
		lo, hi = min(lo, mlo), max(hi, mhi)
	}
	yRange := paddedRange(lo, hi)

	series := []chart.Series{
		chart.TimeSeries{
			Name:    analysis.Topic,
			XValues: times,
			YValues: values,
			Style:   chart.Style{StrokeColor: paletteColor(0), StrokeWidth: 2},
		},
	}

	var markers []chart.Series
	for _, bp := range analysis.Segmentation.Breakpoints {
		if bp < 1 || bp > len(times) {
			continue
		}
		at := times[bp-1]
		markers = append(markers, chart.TimeSeries{
			Name:    fmt.Sprintf("Change Point %d", len(markers)+1),
			XValues: []time.Time{at, at},
			YValues: []float64{yRange.Min, yRange.Max},
			Style: chart.Style{
				StrokeColor:     markerColor,
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{6, 4},
			},
		})
	}

	for i, m := range analysis.Segmentation.Models {
		if m.End > len(times) || m.Len() == 0 {
			continue
		}
		series = append(series, chart.TimeSeries{
			Name:    fmt.Sprintf("Reg %d", i+1),
			XValues: times[m.Start:m.End],
			YValues: m.PredictRange(m.Start, m.End),
			Style:   chart.Style{StrokeColor: paletteColor(i + 1), StrokeWidth: 2},
		})
	}

	ch := chart.Chart{
		Title:  analysis.Topic,
		Width:  Width,
		Height: Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  timeAxis("", times),
		YAxis:  chart.YAxis{Range: yRange},
		Series: append(series, markers...),
	}
	// Markers stay out of the legend
	legend := ch
	legend.Series = series
	ch.Elements = []chart.Renderable{chart.Legend(&legend)}
	return ch, nil
}

// BuildCompositeChart overlays every analyzed topic's raw series.
func BuildCompositeChart(analyses []schema.TopicAnalysis) (chart.Chart, error) {
	var series []chart.Series
	var allTimes []time.Time
	lo, hi := 0.0, 0.0
	for _, a := range analyses {
		values := a.Series.Values()
		if a.Skipped || len(values) == 0 {
			continue
		}
		times := a.Series.Times()
		vlo, vhi := valueRange(values)
		if len(series) == 0 {
			lo, hi = vlo, vhi
		} else {
			lo, hi = min(lo, vlo), max(hi, vhi)
		}
		allTimes = append(allTimes, times...)
		series = append(series, chart.TimeSeries{
			Name:    a.Topic,
			XValues: times,
			YValues: values,
			Style:   chart.Style{StrokeColor: paletteColor(len(series)), StrokeWidth: 2},
		})
	}
	if len(series) == 0 {
		return chart.Chart{}, ErrNothingToPlot
	}

	yAxis := chart.YAxis{
		Name:           CompositeYLabel,
		Range:          paddedRange(lo, hi),
		GridMajorStyle: gridStyle(),
	}
	ch := chart.Chart{
		Title:  CompositeTitle,
		Width:  Width,
		Height: Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  timeAxis(CompositeXLabel, allTimes),
		YAxis:  yAxis,
		Series: series,
	}
	ch.XAxis.GridMajorStyle = gridStyle()
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

func gridStyle() chart.Style {
	return chart.Style{StrokeColor: gridColor, StrokeWidth: 1}
}

// timeAxis formats ticks as years. A single timestamp gets a one day margin
// on both sides since the chart cannot draw a zero-width range.
func timeAxis(name string, times []time.Time) chart.XAxis {
	axis := chart.XAxis{
		Name:           name,
		ValueFormatter: chart.TimeValueFormatterWithFormat("2006"),
	}
	if len(times) == 0 {
		return axis
	}
	first, last := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}
	if first.Equal(last) {
		axis.Range = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(first.Add(-24 * time.Hour)),
			Max: chart.TimeToFloat64(last.Add(24 * time.Hour)),
		}
	}
	return axis
}

func valueRange(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	return lo, hi
}

// paddedRange widens a flat range so the axis has a non-zero span.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if hi-lo < 1e-9 {
		return &chart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}

// renderToFile creates the parent directory and writes the chart as PNG.
func renderToFile(path string, ch chart.Chart) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := ch.Render(chart.PNG, file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to render chart %s: %w", path, err)
	}
	return file.Close()
}
