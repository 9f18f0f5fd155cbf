package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/internal/parquet"
	"github.com/huangsam/hockeystick/schema"
)

// WriteSegmentResults outputs the fitted segments, dispatching based on the output format configured.
func WriteSegmentResults(w io.Writer, analyses []schema.TopicAnalysis, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)
	rows := schema.BuildSegmentRows(analyses)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeJSONResultsForSegments(w, rows); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVResultsForSegments(w, rows, fmtFloat, intFmt); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		scores := make(map[string]float64, len(analyses))
		for _, a := range analyses {
			scores[a.Topic] = a.Segmentation.Score
		}
		if err := parquet.Write(w, parquet.ConvertSegmentRows(rows, scores, time.Now())); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeSegmentTable(w, analyses, rows, cfg, fmtFloat, intFmt, duration)
	}
	return nil
}

// writeSegmentTable writes one row per fitted segment and a timing footer.
func writeSegmentTable(w io.Writer, analyses []schema.TopicAnalysis, rows []schema.SegmentRow, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Topic", "Segment", "Start", "End", "Points", "Intercept", "Slope", "AIC", "Trend"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	label := contract.GetPlainLabel
	if cfg.UseColors {
		label = contract.GetColorLabel
	}

	topicWidth := getMaxTableTopicWidth(cfg)
	var data [][]string
	for _, r := range rows {
		data = append(data, []string{
			contract.TruncateText(r.Topic, topicWidth),
			strconv.Itoa(r.Segment),
			r.StartDate,
			r.EndDate,
			fmt.Sprintf(intFmt, r.Points),
			fmtFloat(r.Intercept),
			fmtFloat(r.Slope),
			fmtFloat(r.AIC),
			label(r.Slope),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	skipped := 0
	for _, a := range analyses {
		if a.Skipped {
			skipped++
		}
	}
	if _, err := fmt.Fprintf(w, "Analyzed %d topics (%d skipped) into %d segments\n", len(analyses)-skipped, skipped, len(rows)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Analysis completed in %v. Cache backend: %s\n", duration, displayBackend(cfg.CacheBackend)); err != nil {
		return err
	}
	return nil
}

// writeJSONResultsForSegments marshals the segment rows to JSON and writes them.
func writeJSONResultsForSegments(w io.Writer, rows []schema.SegmentRow) error {
	if rows == nil {
		rows = []schema.SegmentRow{}
	}
	return writeJSON(w, rows)
}

// writeCSVResultsForSegments writes the segment rows with a header.
func writeCSVResultsForSegments(w io.Writer, rows []schema.SegmentRow, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"topic",
		"segment",
		"start_date",
		"end_date",
		"start_index",
		"end_index",
		"points",
		"intercept",
		"slope",
		"aic",
		"ssr",
		"breakpoints",
		"label",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			row := []string{
				r.Topic,
				strconv.Itoa(r.Segment),
				r.StartDate,
				r.EndDate,
				fmt.Sprintf(intFmt, r.StartIndex),
				fmt.Sprintf(intFmt, r.EndIndex),
				fmt.Sprintf(intFmt, r.Points),
				fmtFloat(r.Intercept),
				fmtFloat(r.Slope),
				fmtFloat(r.AIC),
				fmtFloat(r.SSR),
				fmt.Sprintf(intFmt, r.Breakpoints),
				string(r.Label),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// displayBackend names the disabled backend explicitly.
func displayBackend(backend schema.DatabaseBackend) string {
	if backend == "" {
		return string(schema.NoneBackend)
	}
	return string(backend)
}
