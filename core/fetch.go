package core

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/internal/outwriter"
	"github.com/huangsam/hockeystick/internal/trends"
	"github.com/huangsam/hockeystick/schema"
)

// SummarizeSeries describes a fetched series and the file it was written to.
func SummarizeSeries(series schema.Series, file string) schema.SeriesSummary {
	summary := schema.SeriesSummary{Topic: series.Topic, File: file}
	values := series.Values()
	summary.Points = len(values)
	summary.Missing = series.Len() - len(values)
	if len(values) == 0 {
		return summary
	}

	times := series.Times()
	summary.Start, summary.End = times[0], times[len(times)-1]
	summary.Min = floats.Min(values)
	summary.Max = floats.Max(values)
	summary.Mean = stat.Mean(values, nil)
	return summary
}

// runFetch downloads every configured topic, stores each series as JSON in
// the output directory and prints a summary.
func runFetch(ctx context.Context, cfg *contract.Config, source contract.SeriesSource, ow *outwriter.OutWriter) error {
	start := time.Now()
	log := contract.Log()

	all := make([]schema.Series, 0, len(cfg.Topics))
	summaries := make([]schema.SeriesSummary, 0, len(cfg.Topics))
	for _, topic := range cfg.Topics {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Info().Str("topic", topic).Str("timeframe", cfg.Timeframe).Msg("fetching topic")

		series, err := source.FetchSeries(ctx, topic, cfg.Timeframe)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", topic, err)
		}
		series = normalizeSeries(series, topic, cfg.Timeframe)
		if series.Empty() {
			log.Warn().Str("topic", topic).Msg("topic has no data")
		}

		path, err := trends.WriteSeries(cfg.OutputDir, series)
		if err != nil {
			return err
		}
		log.Debug().Str("topic", topic).Str("path", path).Msg("wrote series")

		all = append(all, series)
		summaries = append(summaries, SummarizeSeries(series, path))
	}

	return ow.WriteSeries(all, summaries, cfg, time.Since(start))
}

// normalizeSeries fills in the identity of a series when the source left it out.
func normalizeSeries(series schema.Series, topic, timeframe string) schema.Series {
	if series.Topic == "" {
		series.Topic = topic
	}
	if series.Timeframe == "" {
		series.Timeframe = timeframe
	}
	return series
}
