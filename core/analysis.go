package core

import (
	"fmt"

	"github.com/huangsam/hockeystick/core/algo"
	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

// SkipReasonNoData is recorded for topics whose series has no usable values.
const SkipReasonNoData = "no data"

// SelectOptionsFromConfig maps the validated configuration onto the
// change-point selection parameters.
func SelectOptionsFromConfig(cfg *contract.Config) algo.SelectOptions {
	return algo.SelectOptions{
		MaxBkps:        cfg.MaxBkps,
		StddevWeight:   cfg.StddevWeight,
		LengthFactor:   cfg.LengthFactor,
		ConstantFactor: cfg.ConstantFactor,
		Cost:           cfg.Cost,
		Jump:           cfg.Jump,
		MinSize:        cfg.MinSize,
	}
}

// AnalyzeSeries selects breakpoints for the series and fits a regression to
// every segment. It has no side effects, so rendering and recording happen
// separately. A series without values is returned as skipped.
func AnalyzeSeries(series schema.Series, opts algo.SelectOptions) (schema.TopicAnalysis, error) {
	analysis := schema.TopicAnalysis{Topic: series.Topic, Series: series}
	if series.Empty() {
		analysis.Skipped = true
		analysis.Reason = SkipReasonNoData
		return analysis, nil
	}

	seg, err := algo.SelectBreakpoints(series.Values(), opts)
	if err != nil {
		return analysis, fmt.Errorf("failed to select breakpoints for %s: %w", series.Topic, err)
	}
	analysis.Segmentation = seg
	return analysis, nil
}

// configParams captures the parameters of a run for the history store.
func configParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"timeframe":       cfg.Timeframe,
		"source":          string(cfg.Source),
		"output_dir":      cfg.OutputDir,
		"max_bkps":        cfg.MaxBkps,
		"stddev_weight":   cfg.StddevWeight,
		"length_factor":   cfg.LengthFactor,
		"constant_factor": cfg.ConstantFactor,
		"cost":            string(cfg.Cost),
		"jump":            cfg.Jump,
		"min_size":        cfg.MinSize,
		"geo":             cfg.Geo,
	}
}
