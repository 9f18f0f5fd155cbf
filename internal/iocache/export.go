package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/internal/parquet"
)

// ExportPaths returns the Parquet files an export to outputFile produces.
func ExportPaths(outputFile string) (runs, segments string) {
	return outputFile + ".runs.parquet", outputFile + ".segments.parquet"
}

// ExecuteHistoryExport exports all runs and segments in store to Parquet
// files next to outputFile and reports progress on w.
func ExecuteHistoryExport(w io.Writer, store contract.HistoryStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("history store is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no history data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total segments: %d\n", status.TotalSegments)

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	segments, err := store.GetAllSegments()
	if err != nil {
		return fmt.Errorf("failed to retrieve segments: %w", err)
	}

	runsFile, segmentsFile := ExportPaths(outputFile)
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	if err := parquet.WriteSegmentsParquet(parquet.ConvertSegmentRecords(segments), segmentsFile); err != nil {
		return fmt.Errorf("failed to write segments: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d segments to: %s\n", len(segments), segmentsFile)

	return nil
}
