//go:build basic

// Package integration contains integration tests for hockeystick.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hockeystick/schema"
)

// TestAnalyzeFromFiles runs the full pipeline offline and verifies the
// segments and charts it produces.
func TestAnalyzeFromFiles(t *testing.T) {
	inputDir := writeFixtures(t, "Groupon", "Uber")
	outputDir := t.TempDir()

	out, err := runHockeystick(t, "analyze", "Groupon", "Uber", "Missing",
		"--source", "file", "--input-dir", inputDir,
		"--output-dir", outputDir, "--output", "json", "--max-bkps", "3")
	require.NoError(t, err)

	var rows []schema.SegmentRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 4, "two segments per topic with data")

	assert.Equal(t, "Groupon", rows[0].Topic)
	assert.Equal(t, 40, rows[1].StartIndex)
	assert.Equal(t, "Uber", rows[2].Topic)
	assert.Equal(t, 50, rows[3].StartIndex)
	for _, r := range []schema.SegmentRow{rows[1], rows[3]} {
		assert.InDelta(t, 3.0, r.Slope, 1e-6)
		assert.Equal(t, schema.SurgingTrend, r.Label)
	}

	for _, name := range []string{
		"Groupon_change_point_analysis.png",
		"Uber_change_point_analysis.png",
		"composite_interest_analysis.png",
	} {
		assert.FileExists(t, filepath.Join(outputDir, name))
	}
	assert.NoFileExists(t, filepath.Join(outputDir, "Missing_change_point_analysis.png"))
}

// TestFetchThenAnalyzeCSV checks that a series survives a round trip
// through the file source and the CSV writer.
func TestFetchThenAnalyzeCSV(t *testing.T) {
	inputDir := writeFixtures(t, "Airbnb")
	csvFile := filepath.Join(t.TempDir(), "segments.csv")

	_, err := runHockeystick(t, "analyze", "Airbnb",
		"--source", "file", "--input-dir", inputDir, "--skip-charts",
		"--output", "csv", "--output-file", csvFile)
	require.NoError(t, err)

	data, err := os.ReadFile(csvFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "topic,segment,start_date,end_date")
	assert.Contains(t, string(data), "Airbnb,2,2010-05-01")
}

// TestInvalidFlags verifies that validation errors exit non-zero.
func TestInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad cost", []string{"analyze", "--cost", "rbf", "--skip-charts"}},
		{"bad output", []string{"analyze", "--output", "xml"}},
		{"bad timeframe", []string{"fetch", "--timeframe", "2020-01-01"}},
		{"file source without dir", []string{"analyze", "--source", "file"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runHockeystick(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
