package schema

import "time"

// CacheStatus represents the status of the fetch cache store.
type CacheStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalEntries    int       `json:"total_entries"`
	LastEntryTime   time.Time `json:"last_entry_time"`
	OldestEntryTime time.Time `json:"oldest_entry_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
}

// HistoryStatus represents the status of the run history store.
type HistoryStatus struct {
	Backend       string           `json:"backend"`
	Connected     bool             `json:"connected"`
	TotalRuns     int              `json:"total_runs"`
	LastRunID     int64            `json:"last_run_id"`
	LastRunTime   time.Time        `json:"last_run_time"`
	OldestRunTime time.Time        `json:"oldest_run_time"`
	TotalSegments int              `json:"total_segments"`
	TableSizes    map[string]int64 `json:"table_sizes"`
}

// RunRecord represents a row from the hockeystick_runs table.
type RunRecord struct {
	RunID        int64
	StartedAt    time.Time
	EndedAt      *time.Time
	DurationMs   *int64
	Topics       string
	ConfigParams *string
}

// SegmentRecord represents a row from the hockeystick_segments table.
type SegmentRecord struct {
	RunID       int64
	Topic       string
	Segment     int32
	StartIndex  int32
	EndIndex    int32
	StartDate   string
	EndDate     string
	Points      int32
	Intercept   float64
	Slope       float64
	AIC         float64
	SSR         float64
	Breakpoints int32
	Score       float64
	RecordedAt  time.Time
}
