// Package core orchestrates fetching, change-point analysis, rendering and
// recording for hockeystick.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/internal/outwriter"
	"github.com/huangsam/hockeystick/internal/render"
	"github.com/huangsam/hockeystick/internal/trends"
	"github.com/huangsam/hockeystick/schema"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteAnalyze runs the full pipeline for every configured topic: fetch,
// select breakpoints, fit, plot and print the segment summary.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	source, err := NewSeriesSource(cfg, mgr)
	if err != nil {
		return err
	}
	_, err = RunAnalyze(ctx, cfg, source, mgr, outwriter.NewOutWriter())
	return err
}

// ExecuteFetch downloads the configured topics into the output directory.
func ExecuteFetch(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	source, err := NewSeriesSource(cfg, mgr)
	if err != nil {
		return err
	}
	return runFetch(ctx, cfg, source, outwriter.NewOutWriter())
}

// NewSeriesSource returns the configured source behind the fetch cache.
func NewSeriesSource(cfg *contract.Config, mgr contract.CacheManager) (contract.SeriesSource, error) {
	source, err := trends.NewSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create series source: %w", err)
	}
	return withCache(source, cfg, mgr), nil
}

// RunAnalyze processes topics sequentially in configuration order. Topics
// without data are skipped with a warning; any other failure aborts the run.
// When ow is nil no summary is printed.
func RunAnalyze(ctx context.Context, cfg *contract.Config, source contract.SeriesSource, mgr contract.CacheManager, ow *outwriter.OutWriter) ([]schema.TopicAnalysis, error) {
	start := time.Now()
	log := contract.Log()

	opts := SelectOptionsFromConfig(cfg)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	run := beginRun(cfg, mgr, start)

	analyses := make([]schema.TopicAnalysis, 0, len(cfg.Topics))
	for _, topic := range cfg.Topics {
		if err := ctx.Err(); err != nil {
			return analyses, err
		}
		log.Info().Str("topic", topic).Str("timeframe", cfg.Timeframe).Msg("fetching topic")

		series, err := source.FetchSeries(ctx, topic, cfg.Timeframe)
		if err != nil {
			return analyses, fmt.Errorf("failed to fetch %s: %w", topic, err)
		}
		series = normalizeSeries(series, topic, cfg.Timeframe)

		analysis, err := AnalyzeSeries(series, opts)
		if err != nil {
			return analyses, err
		}
		analyses = append(analyses, analysis)

		if analysis.Skipped {
			log.Warn().Str("topic", topic).Str("reason", analysis.Reason).Msg("topic skipped")
			continue
		}
		log.Info().
			Str("topic", topic).
			Ints("breakpoints", analysis.Segmentation.Breakpoints).
			Float64("score", analysis.Segmentation.Score).
			Msg("selected breakpoints")

		if !cfg.SkipCharts {
			path, err := render.TopicChart(cfg.OutputDir, analysis)
			if err != nil {
				return analyses, fmt.Errorf("failed to plot %s: %w", topic, err)
			}
			log.Info().Str("topic", topic).Str("path", path).Msg("wrote chart")
		}
		run.record(analysis)
	}

	if !cfg.SkipCharts {
		path, err := render.CompositeChart(cfg.OutputDir, analyses)
		switch {
		case errors.Is(err, render.ErrNothingToPlot):
			log.Warn().Msg("no topic had data; composite chart not written")
		case err != nil:
			return analyses, fmt.Errorf("failed to plot composite chart: %w", err)
		default:
			log.Info().Str("path", path).Msg("wrote chart")
		}
	}

	run.end()

	if ow == nil {
		return analyses, nil
	}
	return analyses, ow.WriteSegments(analyses, cfg, time.Since(start))
}

// runTracker records one analyze run in the history store. Tracking
// failures are logged and never abort the analysis.
type runTracker struct {
	store contract.HistoryStore
	id    int64
}

func beginRun(cfg *contract.Config, mgr contract.CacheManager, start time.Time) *runTracker {
	run := &runTracker{}
	if mgr == nil {
		return run
	}
	store := mgr.GetHistoryStore()
	if store == nil {
		return run
	}

	id, err := store.BeginRun(start, cfg.Topics, configParams(cfg))
	if err != nil {
		contract.LogWarn("Run tracking initialization failed", err)
		return run
	}
	if id > 0 {
		run.store, run.id = store, id
	}
	return run
}

func (r *runTracker) record(analysis schema.TopicAnalysis) {
	if r.store == nil {
		return
	}
	if err := r.store.RecordTopic(r.id, analysis); err != nil {
		contract.LogWarn(fmt.Sprintf("Run tracking failed for %s", analysis.Topic), err)
	}
}

func (r *runTracker) end() {
	if r.store == nil {
		return
	}
	if err := r.store.EndRun(r.id, time.Now()); err != nil {
		contract.LogWarn("Failed to finalize run tracking", err)
	}
}
