package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/huangsam/hockeystick/schema"
)

func hockeyStick(topic string, n, knee int) schema.TopicAnalysis {
	start := time.Date(2007, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]schema.Point, n)
	for i := range points {
		v := 1.0
		if i >= knee {
			v += 5 * float64(i-knee)
		}
		points[i] = schema.Point{Time: start.AddDate(0, i, 0), Value: v}
	}
	return schema.TopicAnalysis{
		Topic:  topic,
		Series: schema.Series{Topic: topic, Points: points},
		Segmentation: schema.Segmentation{
			Breakpoints: []int{knee},
			Models: []schema.SegmentModel{
				{Start: 0, End: knee, Intercept: 1, Slope: 0, N: knee},
				{Start: knee, End: n, Intercept: 1 - 5*float64(knee), Slope: 5, N: n - knee},
			},
		},
	}
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	cfg, err := png.DecodeConfig(file)
	require.NoError(t, err)
	assert.Equal(t, Width, cfg.Width)
	assert.Equal(t, Height, cfg.Height)
}

func TestChartPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("graphs", "Uber_change_point_analysis.png"), TopicChartPath("graphs", "Uber"))
	assert.Equal(t, filepath.Join("graphs", "AC_DC_change_point_analysis.png"), TopicChartPath("graphs", "AC/DC"))
	assert.Equal(t, filepath.Join("graphs", "composite_interest_analysis.png"), CompositeChartPath("graphs"))
}

func TestBuildTopicChart(t *testing.T) {
	analysis := hockeyStick("Uber", 40, 20)
	ch, err := BuildTopicChart(analysis)
	require.NoError(t, err)

	assert.Equal(t, "Uber", ch.Title)
	// raw series, two regression lines, one marker
	require.Len(t, ch.Series, 4)
	assert.Equal(t, "Uber", ch.Series[0].GetName())
	assert.Equal(t, "Reg 1", ch.Series[1].GetName())
	assert.Equal(t, "Reg 2", ch.Series[2].GetName())

	marker, ok := ch.Series[3].(chart.TimeSeries)
	require.True(t, ok)
	times := analysis.Series.Times()
	assert.Equal(t, []time.Time{times[19], times[19]}, marker.XValues)
	assert.Equal(t, chart.ColorRed, marker.Style.StrokeColor)
	assert.NotEmpty(t, marker.Style.StrokeDashArray)

	reg2, ok := ch.Series[2].(chart.TimeSeries)
	require.True(t, ok)
	assert.Equal(t, times[20:], reg2.XValues)
	assert.InDelta(t, 1.0, reg2.YValues[0], 1e-9)
	assert.Len(t, ch.Elements, 1)
}

func TestBuildTopicChartErrors(t *testing.T) {
	_, err := BuildTopicChart(schema.TopicAnalysis{Topic: "Empty"})
	assert.ErrorIs(t, err, ErrNothingToPlot)
}

func TestTopicChart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "graphs")
	path, err := TopicChart(dir, hockeyStick("Airbnb", 60, 30))
	require.NoError(t, err)
	assert.Equal(t, TopicChartPath(dir, "Airbnb"), path)
	assertPNG(t, path)
}

func TestTopicChartFlatSeries(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []schema.Point{
		{Time: start, Value: 3},
		{Time: start.AddDate(0, 1, 0), Value: 3},
		{Time: start.AddDate(0, 2, 0), Value: 3},
	}
	analysis := schema.TopicAnalysis{
		Topic:  "Flat",
		Series: schema.Series{Topic: "Flat", Points: points},
		Segmentation: schema.Segmentation{
			Models: []schema.SegmentModel{{Start: 0, End: 3, Intercept: 3, N: 3}},
		},
	}

	ch, err := BuildTopicChart(analysis)
	require.NoError(t, err)
	require.NotNil(t, ch.YAxis.Range)
	assert.Equal(t, 2.0, ch.YAxis.Range.GetMin())
	assert.Equal(t, 4.0, ch.YAxis.Range.GetMax())

	var buf bytes.Buffer
	require.NoError(t, WriteTopicChart(&buf, analysis))
	assert.Positive(t, buf.Len())
}

func TestCompositeChart(t *testing.T) {
	analyses := []schema.TopicAnalysis{
		hockeyStick("Groupon", 50, 10),
		{Topic: "Skipped", Skipped: true},
		hockeyStick("WeWork", 50, 30),
	}

	ch, err := BuildCompositeChart(analyses)
	require.NoError(t, err)
	assert.Equal(t, CompositeTitle, ch.Title)
	assert.Equal(t, CompositeXLabel, ch.XAxis.Name)
	assert.Equal(t, CompositeYLabel, ch.YAxis.Name)
	assert.Equal(t, float64(1), ch.YAxis.GridMajorStyle.StrokeWidth)
	require.Len(t, ch.Series, 2)
	assert.Equal(t, "Groupon", ch.Series[0].GetName())
	assert.Equal(t, "WeWork", ch.Series[1].GetName())

	dir := t.TempDir()
	path, err := CompositeChart(dir, analyses)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, CompositeFileName), path)
	assertPNG(t, path)
}

func TestCompositeChartNothingToPlot(t *testing.T) {
	_, err := CompositeChart(t.TempDir(), []schema.TopicAnalysis{{Topic: "A", Skipped: true}})
	assert.ErrorIs(t, err, ErrNothingToPlot)
}

func TestRenderToFileUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := TopicChart(filepath.Join(blocker, "graphs"), hockeyStick("Uber", 20, 10))
	assert.Error(t, err)
}
