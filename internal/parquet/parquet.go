// Package parquet provides data structures and functions for exporting
// hockeystick segmentations and run history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/huangsam/hockeystick/schema"
)

// RunRecord represents a single analyze run with metadata.
// This struct maps to the hockeystick_runs database table.
type RunRecord struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartedAt is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartedAt time.Time `parquet:"started_at,snappy"`

	// EndedAt is when the run completed (nullable)
	EndedAt *time.Time `parquet:"ended_at,optional,snappy"`

	// DurationMs is the duration of the run in milliseconds (nullable)
	DurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`

	// Topics is the comma-separated topic list
	Topics string `parquet:"topics,snappy,dict"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// SegmentRecord represents one fitted regression segment of a topic.
// This struct maps to the hockeystick_segments database table; RunID is
// zero when the row comes straight from an analyze run.
type SegmentRecord struct {
	RunID       int64     `parquet:"run_id,snappy"`
	Topic       string    `parquet:"topic,snappy,dict"`
	Segment     int32     `parquet:"segment_index,snappy"`
	StartIndex  int32     `parquet:"start_index,snappy"`
	EndIndex    int32     `parquet:"end_index,snappy"`
	StartDate   string    `parquet:"start_date,snappy"`
	EndDate     string    `parquet:"end_date,snappy"`
	Points      int32     `parquet:"points,snappy"`
	Intercept   float64   `parquet:"intercept,snappy"`
	Slope       float64   `parquet:"slope,snappy"`
	AIC         float64   `parquet:"aic,snappy"`
	SSR         float64   `parquet:"ssr,snappy"`
	Breakpoints int32     `parquet:"breakpoints,snappy"`
	Score       float64   `parquet:"score,snappy"`
	Label       string    `parquet:"label,snappy,dict"`
	RecordedAt  time.Time `parquet:"recorded_at,snappy"`
}

// PointRecord is one observation of a fetched series.
type PointRecord struct {
	Topic   string    `parquet:"topic,snappy,dict"`
	Time    time.Time `parquet:"time,snappy"`
	Value   float64   `parquet:"value,snappy"`
	Missing bool      `parquet:"missing,snappy"`
}

// Write encodes rows as a Parquet file onto w. The schema is derived from
// the struct tags of T.
func Write[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteFile writes rows to a new Parquet file at outputPath.
func WriteFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteRunsParquet writes run records to a Parquet file.
func WriteRunsParquet(data []RunRecord, outputPath string) error {
	return WriteFile(data, outputPath)
}

// WriteSegmentsParquet writes segment records to a Parquet file.
func WriteSegmentsParquet(data []SegmentRecord, outputPath string) error {
	return WriteFile(data, outputPath)
}

// ConvertRunRecords converts schema.RunRecord to RunRecord for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []RunRecord {
	result := make([]RunRecord, len(records))
	for i, r := range records {
		result[i] = RunRecord{
			RunID:        r.RunID,
			StartedAt:    r.StartedAt,
			EndedAt:      r.EndedAt,
			DurationMs:   r.DurationMs,
			Topics:       r.Topics,
			ConfigParams: r.ConfigParams,
		}
	}
	return result
}

// ConvertSegmentRecords converts stored segments for Parquet export.
func ConvertSegmentRecords(records []schema.SegmentRecord) []SegmentRecord {
	result := make([]SegmentRecord, len(records))
	for i, r := range records {
		result[i] = SegmentRecord{
			RunID:       r.RunID,
			Topic:       r.Topic,
			Segment:     r.Segment,
			StartIndex:  r.StartIndex,
			EndIndex:    r.EndIndex,
			StartDate:   r.StartDate,
			EndDate:     r.EndDate,
			Points:      r.Points,
			Intercept:   r.Intercept,
			Slope:       r.Slope,
			AIC:         r.AIC,
			SSR:         r.SSR,
			Breakpoints: r.Breakpoints,
			Score:       r.Score,
			Label:       string(schema.ClassifySlope(r.Slope)),
			RecordedAt:  r.RecordedAt,
		}
	}
	return result
}

// ConvertSegmentRows converts the rows of a fresh analysis. score maps a
// topic to its penalized segmentation score.
func ConvertSegmentRows(rows []schema.SegmentRow, score map[string]float64, recordedAt time.Time) []SegmentRecord {
	result := make([]SegmentRecord, len(rows))
	for i, r := range rows {
		result[i] = SegmentRecord{
			Topic:       r.Topic,
			Segment:     int32(r.Segment),
			StartIndex:  int32(r.StartIndex),
			EndIndex:    int32(r.EndIndex),
			StartDate:   r.StartDate,
			EndDate:     r.EndDate,
			Points:      int32(r.Points),
			Intercept:   r.Intercept,
			Slope:       r.Slope,
			AIC:         r.AIC,
			SSR:         r.SSR,
			Breakpoints: int32(r.Breakpoints),
			Score:       score[r.Topic],
			Label:       string(r.Label),
			RecordedAt:  recordedAt,
		}
	}
	return result
}

// ConvertSeries flattens fetched series into one record per point.
func ConvertSeries(series []schema.Series) []PointRecord {
	var result []PointRecord
	for _, s := range series {
		for _, p := range s.Points {
			result = append(result, PointRecord{Topic: s.Topic, Time: p.Time, Value: p.Value, Missing: p.Missing})
		}
	}
	return result
}
