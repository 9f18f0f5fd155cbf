package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

// Table names for run history.
const (
	runsTable     = "hockeystick_runs"
	segmentsTable = "hockeystick_segments"
)

// historyTables lists every table the history store owns, children first.
var historyTables = []string{segmentsTable, runsTable, migrationsTable}

// HistoryStoreImpl records analyze runs and their fitted segments.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore opens the history database and brings its schema up to
// date before returning the store.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend || backend == "" {
		// No-op store for disabled tracking
		return &HistoryStoreImpl{backend: schema.NoneBackend}, nil
	}
	if backend == schema.SQLiteBackend && strings.HasPrefix(connStr, ":memory:") {
		return nil, fmt.Errorf("history storage needs a SQLite file; in-memory databases are not supported")
	}

	// Migrations run on their own connection because closing the migrator
	// closes the database handle.
	if _, err := MigrateHistory(backend, connStr, -1); err != nil {
		return nil, fmt.Errorf("failed to migrate history schema: %w", err)
	}

	db, err := openDB(backend, connStr, GetHistoryDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history store: %w", err)
	}
	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startedAt time.Time, topics []string, configParams map[string]any) (int64, error) {
	if hs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}
	topicList := strings.Join(topics, ",")
	quoted := quoteTableName(runsTable, hs.backend)

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (started_at, topics, config_params) VALUES ($1, $2, $3) RETURNING run_id`, quoted)
		err = hs.db.QueryRow(query, formatTime(startedAt, hs.backend), topicList, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (started_at, topics, config_params) VALUES (?, ?, ?)`, quoted)
		var result sql.Result
		result, err = hs.db.Exec(query, formatTime(startedAt, hs.backend), topicList, string(configJSON))
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// EndRun stamps the run with its end time and duration.
func (hs *HistoryStoreImpl) EndRun(runID int64, endedAt time.Time) error {
	if hs.db == nil {
		return nil
	}

	quoted := quoteTableName(runsTable, hs.backend)
	query := fmt.Sprintf(`SELECT started_at FROM %s WHERE run_id = %s`, quoted, placeholders(hs.backend, 1))
	startedAt, err := hs.scanTime(hs.db.QueryRow(query, runID))
	if err != nil {
		return fmt.Errorf("failed to get started_at for run %d: %w", runID, err)
	}

	durationMs := endedAt.Sub(startedAt).Milliseconds()
	var update string
	if hs.backend == schema.PostgreSQLBackend {
		update = fmt.Sprintf(`UPDATE %s SET ended_at = $1, run_duration_ms = $2 WHERE run_id = $3`, quoted)
	} else {
		update = fmt.Sprintf(`UPDATE %s SET ended_at = ?, run_duration_ms = ? WHERE run_id = ?`, quoted)
	}
	if _, err := hs.db.Exec(update, formatTime(endedAt, hs.backend), durationMs, runID); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

// RecordTopic stores every fitted segment of one topic's analysis. Skipped
// topics are not recorded.
func (hs *HistoryStoreImpl) RecordTopic(runID int64, analysis schema.TopicAnalysis) error {
	if hs.db == nil || analysis.Skipped {
		return nil
	}

	rows := schema.BuildSegmentRows([]schema.TopicAnalysis{analysis})
	if len(rows) == 0 {
		return nil
	}

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`INSERT INTO %s (run_id, topic, segment_index, start_index, end_index,
		start_date, end_date, points, intercept, slope, aic, ssr, breakpoints, score, recorded_at)
		VALUES (%s)`, quoteTableName(segmentsTable, hs.backend), placeholders(hs.backend, 15))

	recordedAt := formatTime(time.Now(), hs.backend)
	for _, r := range rows {
		if _, err := tx.Exec(query,
			runID, r.Topic, r.Segment, r.StartIndex, r.EndIndex,
			r.StartDate, r.EndDate, r.Points, r.Intercept, r.Slope, r.AIC, r.SSR,
			r.Breakpoints, analysis.Segmentation.Score, recordedAt,
		); err != nil {
			return fmt.Errorf("failed to insert segment %d of %s: %w", r.Segment, r.Topic, err)
		}
	}
	return tx.Commit()
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}
	if hs.db == nil {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run id: %w", err)
		}

		last, err := hs.scanTime(hs.db.QueryRow(fmt.Sprintf("SELECT started_at FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns)))
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = last

		oldest, err := hs.scanTime(hs.db.QueryRow(fmt.Sprintf("SELECT started_at FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns)))
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest
	}

	for _, table := range []string{runsTable, segmentsTable} {
		var count int64
		row := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend)))
		if err := row.Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	status.TotalSegments = int(status.TableSizes[segmentsTable])

	return status, nil
}

// GetAllRuns retrieves all runs ordered by ID.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, started_at, ended_at, run_duration_ms, topics, config_params FROM %s ORDER BY run_id",
		quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		if hs.backend == schema.SQLiteBackend {
			var startedAt string
			var endedAt *string
			if err := rows.Scan(&record.RunID, &startedAt, &endedAt, &record.DurationMs, &record.Topics, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			if record.StartedAt, err = parseTime(startedAt); err != nil {
				return nil, fmt.Errorf("failed to parse started_at: %w", err)
			}
			if endedAt != nil {
				t, err := parseTime(*endedAt)
				if err != nil {
					return nil, fmt.Errorf("failed to parse ended_at: %w", err)
				}
				record.EndedAt = &t
			}
		} else if err := rows.Scan(&record.RunID, &record.StartedAt, &record.EndedAt, &record.DurationMs, &record.Topics, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return results, nil
}

// GetAllSegments retrieves all recorded segments ordered by run, topic and index.
func (hs *HistoryStoreImpl) GetAllSegments() ([]schema.SegmentRecord, error) {
	if hs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, topic, segment_index, start_index, end_index, start_date, end_date,
		points, intercept, slope, aic, ssr, breakpoints, score, recorded_at
		FROM %s ORDER BY run_id, topic, segment_index`, quoteTableName(segmentsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SegmentRecord
	for rows.Next() {
		var r schema.SegmentRecord
		dest := []any{&r.RunID, &r.Topic, &r.Segment, &r.StartIndex, &r.EndIndex, &r.StartDate, &r.EndDate,
			&r.Points, &r.Intercept, &r.Slope, &r.AIC, &r.SSR, &r.Breakpoints, &r.Score}

		if hs.backend == schema.SQLiteBackend {
			var recordedAt string
			if err := rows.Scan(append(dest, &recordedAt)...); err != nil {
				return nil, fmt.Errorf("failed to scan segment: %w", err)
			}
			if r.RecordedAt, err = parseTime(recordedAt); err != nil {
				return nil, fmt.Errorf("failed to parse recorded_at: %w", err)
			}
		} else if err := rows.Scan(append(dest, &r.RecordedAt)...); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segments: %w", err)
	}
	return results, nil
}

// scanTime reads a timestamp column, which SQLite stores as text.
func (hs *HistoryStoreImpl) scanTime(row *sql.Row) (time.Time, error) {
	if hs.backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return parseTime(s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}
