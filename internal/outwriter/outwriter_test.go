package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

func sampleAnalyses() []schema.TopicAnalysis {
	start := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]schema.Point, 8)
	for i := range points {
		points[i] = schema.Point{Time: start.AddDate(0, i, 0), Value: float64(i)}
	}
	return []schema.TopicAnalysis{
		{
			Topic:  "Airbnb",
			Series: schema.Series{Topic: "Airbnb", Points: points},
			Segmentation: schema.Segmentation{
				Breakpoints: []int{4},
				Models: []schema.SegmentModel{
					{Start: 0, End: 4, Intercept: 1.5, Slope: 0.05, N: 4, AIC: -10.25},
					{Start: 4, End: 8, Intercept: -12, Slope: 3.25, N: 4, AIC: 4.5},
				},
				Score: 7.125,
			},
		},
		{Topic: "Groupon", Skipped: true, Reason: "no data"},
	}
}

func textConfig() *contract.Config {
	return &contract.Config{Output: schema.TextOut, Precision: 2, Width: 160}
}

func TestCreateFormatters(t *testing.T) {
	fmtFloat, intFmt := createFormatters(3)
	assert.Equal(t, "1.235", fmtFloat(1.23456))
	assert.Equal(t, "%d", intFmt)
}

func TestWriteSegmentResultsTable(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSegmentResults(&buf, sampleAnalyses(), textConfig(), 250*time.Millisecond)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Airbnb")
	assert.Contains(t, output, "2012-01-01")
	assert.Contains(t, output, "2012-08-01")
	assert.Contains(t, output, "3.25")
	assert.Contains(t, output, "-10.25")
	assert.Contains(t, output, "Flat")
	assert.Contains(t, output, "Surging")
	assert.NotContains(t, output, "Groupon")
	assert.Contains(t, output, "Analyzed 1 topics (1 skipped) into 2 segments")
	assert.Contains(t, output, "Analysis completed in 250ms. Cache backend: none")
}

func TestWriteSegmentResultsJSON(t *testing.T) {
	cfg := textConfig()
	cfg.Output = schema.JSONOut

	var buf bytes.Buffer
	require.NoError(t, WriteSegmentResults(&buf, sampleAnalyses(), cfg, 0))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "Airbnb", rows[0]["topic"])
	assert.Equal(t, float64(1), rows[0]["segment"])
	assert.Equal(t, "Flat", rows[0]["label"])
	assert.Equal(t, 3.25, rows[1]["slope"])
	assert.Equal(t, float64(1), rows[1]["breakpoints"])
}

func TestWriteSegmentResultsJSONEmpty(t *testing.T) {
	cfg := textConfig()
	cfg.Output = schema.JSONOut

	var buf bytes.Buffer
	require.NoError(t, WriteSegmentResults(&buf, nil, cfg, 0))
	assert.JSONEq(t, "[]", buf.String())
}

func TestWriteSegmentResultsCSV(t *testing.T) {
	cfg := textConfig()
	cfg.Output = schema.CSVOut

	var buf bytes.Buffer
	require.NoError(t, WriteSegmentResults(&buf, sampleAnalyses(), cfg, 0))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "topic", records[0][0])
	assert.Equal(t, "label", records[0][12])
	assert.Equal(t, []string{"Airbnb", "2", "2012-05-01", "2012-08-01", "4", "8", "4", "-12.00", "3.25", "4.50", "0.00", "1", "Surging"}, records[2])
}

func TestWriteSegmentResultsParquet(t *testing.T) {
	cfg := textConfig()
	cfg.Output = schema.ParquetOut

	var buf bytes.Buffer
	require.NoError(t, WriteSegmentResults(&buf, sampleAnalyses(), cfg, 0))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PAR1")))
}

func TestWriteSeriesResults(t *testing.T) {
	start := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	series := []schema.Series{
		{Topic: "WeWork", Points: []schema.Point{{Time: start, Value: 10}, {Time: start.AddDate(0, 1, 0), Value: 30}}},
		{Topic: "Nothing"},
	}
	summaries := []schema.SeriesSummary{
		{Topic: "WeWork", Points: 2, Start: start, End: start.AddDate(0, 1, 0), Min: 10, Max: 30, Mean: 20, File: "data/WeWork.json"},
		{Topic: "Nothing"},
	}

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteSeriesResults(&buf, series, summaries, textConfig(), time.Second))
		output := buf.String()
		assert.Contains(t, output, "WeWork")
		assert.Contains(t, output, "2016-02-01")
		assert.Contains(t, output, "20.00")
		assert.Contains(t, output, "Fetched 2 topics in 1s")
	})

	t.Run("csv", func(t *testing.T) {
		cfg := textConfig()
		cfg.Output = schema.CSVOut
		var buf bytes.Buffer
		require.NoError(t, WriteSeriesResults(&buf, series, summaries, cfg, 0))

		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "data/WeWork.json", records[1][8])
		assert.Equal(t, "", records[2][3])
	})

	t.Run("json", func(t *testing.T) {
		cfg := textConfig()
		cfg.Output = schema.JSONOut
		var buf bytes.Buffer
		require.NoError(t, WriteSeriesResults(&buf, series, summaries, cfg, 0))
		assert.Contains(t, buf.String(), `"file": "data/WeWork.json"`)
	})

	t.Run("parquet", func(t *testing.T) {
		cfg := textConfig()
		cfg.Output = schema.ParquetOut
		var buf bytes.Buffer
		require.NoError(t, WriteSeriesResults(&buf, series, summaries, cfg, 0))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PAR1")))
	})
}

func TestOutWriterToFile(t *testing.T) {
	cfg := textConfig()
	cfg.Output = schema.CSVOut
	cfg.OutputFile = filepath.Join(t.TempDir(), "segments.csv")

	require.NoError(t, NewOutWriter().WriteSegments(sampleAnalyses(), cfg, 0))

	content, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "topic,segment,"))
}

func TestWriteWithFile(t *testing.T) {
	t.Run("actual file", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "test.txt")
		err := writeWithFile(tmpFile, func(w io.Writer) error {
			_, err := w.Write([]byte("test content"))
			return err
		}, "Test message")
		require.NoError(t, err)

		content, err := os.ReadFile(tmpFile)
		require.NoError(t, err)
		assert.Equal(t, "test content", string(content))
	})

	t.Run("writer error", func(t *testing.T) {
		err := writeWithFile(filepath.Join(t.TempDir(), "test.txt"), func(io.Writer) error {
			return assert.AnError
		}, "Test message")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("invalid path", func(t *testing.T) {
		err := writeWithFile("/nonexistent/path/file.txt", func(io.Writer) error {
			return nil
		}, "Test message")
		assert.Error(t, err)
	})
}

func TestGetMaxTableTopicWidth(t *testing.T) {
	tests := []struct {
		name  string
		width int
		want  int
	}{
		{"narrow", 80, 10},
		{"medium", 120, 25},
		{"wide", 300, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getMaxTableTopicWidth(&contract.Config{Width: tt.width}))
		})
	}
}
