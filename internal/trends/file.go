package trends

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

// FileSource reads series previously written by the fetch command from
// <dir>/<topic>.json.
type FileSource struct {
	dir string
}

var _ contract.SeriesSource = (*FileSource)(nil)

// NewFileSource creates a source rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// SeriesPath returns the file a topic's series is stored in.
func SeriesPath(dir, topic string) string {
	return filepath.Join(dir, contract.TopicFileName(topic)+".json")
}

// FetchSeries loads the stored series for topic. A missing file yields an
// empty series, like a topic Google Trends has no data for.
func (s *FileSource) FetchSeries(ctx context.Context, topic string, timeframe string) (schema.Series, error) {
	empty := schema.Series{Topic: topic, Timeframe: timeframe}
	if err := ctx.Err(); err != nil {
		return empty, err
	}

	path := SeriesPath(s.dir, topic)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		contract.Log().Debug().Str("path", path).Msg("no stored series")
		return empty, nil
	}
	if err != nil {
		return empty, fmt.Errorf("read series %s: %w", path, err)
	}

	var series schema.Series
	if err := json.Unmarshal(data, &series); err != nil {
		return empty, fmt.Errorf("decode series %s: %w", path, err)
	}
	if series.Topic == "" {
		series.Topic = topic
	}
	if timeframe != "" && series.Timeframe != "" && series.Timeframe != timeframe {
		contract.Log().Warn().
			Str("topic", topic).
			Str("stored", series.Timeframe).
			Str("requested", timeframe).
			Msg("stored series covers a different timeframe")
	}
	return series, nil
}

// WriteSeries stores a series as indented JSON under dir.
func WriteSeries(dir string, series schema.Series) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create series dir: %w", err)
	}
	data, err := json.MarshalIndent(series, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode series: %w", err)
	}
	path := SeriesPath(dir, series.Topic)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write series %s: %w", path, err)
	}
	return path, nil
}

// NewSource returns the series source selected by the configuration.
func NewSource(cfg *contract.Config) (contract.SeriesSource, error) {
	switch cfg.Source {
	case schema.FileSource:
		return NewFileSource(cfg.InputDir), nil
	case schema.TrendsSource, "":
		return NewFromConfig(cfg)
	default:
		return nil, fmt.Errorf("unsupported source: %s", cfg.Source)
	}
}
