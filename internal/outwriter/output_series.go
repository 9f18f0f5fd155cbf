package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/internal/parquet"
	"github.com/huangsam/hockeystick/schema"
)

// WriteSeriesResults outputs what the fetch command retrieved. Parquet output
// carries every point while the other formats summarize each series.
func WriteSeriesResults(w io.Writer, series []schema.Series, summaries []schema.SeriesSummary, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if summaries == nil {
			summaries = []schema.SeriesSummary{}
		}
		if err := writeJSON(w, summaries); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeCSVResultsForSeries(w, summaries, fmtFloat, intFmt); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := parquet.Write(w, parquet.ConvertSeries(series)); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeSeriesTable(w, summaries, cfg, fmtFloat, intFmt, duration)
	}
	return nil
}

// writeSeriesTable prints one row per fetched topic.
func writeSeriesTable(w io.Writer, summaries []schema.SeriesSummary, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Topic", "Points", "Missing", "Start", "End", "Min", "Max", "Mean"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	topicWidth := getMaxTableTopicWidth(cfg)
	var data [][]string
	for _, s := range summaries {
		row := []string{
			contract.TruncateText(s.Topic, topicWidth),
			fmt.Sprintf(intFmt, s.Points),
			fmt.Sprintf(intFmt, s.Missing),
			"-", "-", "-", "-", "-",
		}
		if s.Points > 0 {
			row[3] = s.Start.Format(schema.DateFormat)
			row[4] = s.End.Format(schema.DateFormat)
			row[5] = fmtFloat(s.Min)
			row[6] = fmtFloat(s.Max)
			row[7] = fmtFloat(s.Mean)
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Fetched %d topics in %v. Cache backend: %s\n", len(summaries), duration, displayBackend(cfg.CacheBackend))
	return err
}

// writeCSVResultsForSeries writes the series summaries with a header.
func writeCSVResultsForSeries(w io.Writer, summaries []schema.SeriesSummary, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"topic", "points", "missing", "start", "end", "min", "max", "mean", "file"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range summaries {
			var start, end string
			if s.Points > 0 {
				start = s.Start.Format(schema.DateFormat)
				end = s.End.Format(schema.DateFormat)
			}
			row := []string{
				s.Topic,
				fmt.Sprintf(intFmt, s.Points),
				fmt.Sprintf(intFmt, s.Missing),
				start,
				end,
				fmtFloat(s.Min),
				fmtFloat(s.Max),
				fmtFloat(s.Mean),
				s.File,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}
