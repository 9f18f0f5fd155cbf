// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"time"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSegments prints the analyze summary to the configured output file or stdout.
func (ow *OutWriter) WriteSegments(analyses []schema.TopicAnalysis, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteSegmentResults(w, analyses, cfg, duration)
	}, "Wrote "+outputName(cfg.Output)+" segments")
}

// WriteSeries prints the fetch summary to the configured output file or stdout.
func (ow *OutWriter) WriteSeries(series []schema.Series, summaries []schema.SeriesSummary, cfg *contract.Config, duration time.Duration) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return WriteSeriesResults(w, series, summaries, cfg, duration)
	}, "Wrote "+outputName(cfg.Output)+" series")
}

func outputName(mode schema.OutputMode) string {
	switch mode {
	case schema.JSONOut:
		return "JSON"
	case schema.CSVOut:
		return "CSV"
	case schema.ParquetOut:
		return "Parquet"
	default:
		return "table"
	}
}
