package schema

import "time"

// Custom string types for type safety.
type (
	// OutputMode represents the format of the summary output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and history.
	DatabaseBackend string

	// CostModel represents the segment cost used by binary segmentation.
	CostModel string

	// SourceKind represents where series are read from.
	SourceKind string

	// TrendLabel classifies a fitted segment by its slope.
	TrendLabel string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none" // default
)

// All segmentation cost models supported.
const (
	LinearCost CostModel = "linear" // default
	L2Cost     CostModel = "l2"
)

// All series sources supported.
const (
	TrendsSource SourceKind = "trends" // default
	FileSource   SourceKind = "file"
)

// Trend labels, ordered from steepest growth to decline.
const (
	SurgingTrend   TrendLabel = "Surging"
	GrowingTrend   TrendLabel = "Growing"
	FlatTrend      TrendLabel = "Flat"
	DecliningTrend TrendLabel = "Declining"
)

// SeriesCacheVersion is bumped whenever the cached series encoding changes.
const SeriesCacheVersion = 1

// DefaultCacheTTL is how long a cached series stays fresh.
const DefaultCacheTTL = 7 * 24 * time.Hour

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidCostModels lists all valid segmentation cost models.
var ValidCostModels = map[CostModel]struct{}{
	LinearCost: {},
	L2Cost:     {},
}

// ValidSourceKinds lists all valid series sources.
var ValidSourceKinds = map[SourceKind]struct{}{
	TrendsSource: {},
	FileSource:   {},
}
