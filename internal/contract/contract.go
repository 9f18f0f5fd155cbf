// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/hockeystick/schema"
)

// SeriesSource returns the interest-over-time series for a single topic.
// This allows the pipeline to be tested without reaching Google Trends.
type SeriesSource interface {
	// FetchSeries returns the series for topic over timeframe. A topic with
	// no upstream data yields an empty series rather than an error.
	FetchSeries(ctx context.Context, topic string, timeframe string) (schema.Series, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetSeriesStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking analyze runs and the
// segments they produced.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startedAt time.Time, topics []string, configParams map[string]any) (int64, error)

	// RecordTopic stores every fitted segment of one topic analysis
	RecordTopic(runID int64, analysis schema.TopicAnalysis) error

	// EndRun marks the run as finished
	EndRun(runID int64, endedAt time.Time) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllSegments returns every recorded segment ordered by run, topic and segment
	GetAllSegments() ([]schema.SegmentRecord, error)

	// Close closes the underlying connection
	Close() error
}
