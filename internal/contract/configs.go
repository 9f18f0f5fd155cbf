package contract

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/hockeystick/schema"
)

// Default values for configuration.
const (
	DefaultTimeframe      = "2007-01-01 2023-01-01"
	DefaultOutputDir      = "graphs"
	DefaultMaxBkps        = 5
	MaxMaxBkps            = 50
	DefaultStddevWeight   = 0.5
	DefaultLengthFactor   = 0.2
	DefaultConstantFactor = 1.0
	DefaultJump           = 5
	DefaultMinSize        = 2
	DefaultPrecision      = 2
	DefaultGeo            = ""
	DefaultLanguage       = "en-US"
	DefaultTZOffset       = 360
	DefaultHTTPTimeout    = 30 * time.Second
	MaxRetries            = 10
)

// DefaultTopics is the topic set analyzed when none is configured.
var DefaultTopics = []string{"Groupon", "Uber", "Airbnb", "WeWork"}

// relativeTimeframe matches the relative windows Google Trends accepts.
var relativeTimeframe = regexp.MustCompile(`^(all|today \d+-[my]|now \d+-[dH])$`)

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	Topics    []string
	Timeframe string
	StartDate time.Time // Zero when Timeframe is relative
	EndDate   time.Time // Zero when Timeframe is relative
	OutputDir string

	MaxBkps        int
	StddevWeight   float64
	LengthFactor   float64
	ConstantFactor float64
	Cost           schema.CostModel
	Jump           int
	MinSize        int

	Source   schema.SourceKind
	InputDir string
	Geo      string
	Language string
	TZOffset int
	Retries  int
	Timeout  time.Duration

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	SkipCharts bool

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	LogLevel  string
	LogFormat string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	TopicArgs []string

	// --- Fields from rootCmd.PersistentFlags() ---
	Topics           []string `mapstructure:"topics"`
	Timeframe        string   `mapstructure:"timeframe"`
	Output           string   `mapstructure:"output"`
	OutputFile       string   `mapstructure:"output-file"`
	Precision        int      `mapstructure:"precision"`
	Width            int      `mapstructure:"width"`
	Color            string   `mapstructure:"color"`
	Source           string   `mapstructure:"source"`
	InputDir         string   `mapstructure:"input-dir"`
	Geo              string   `mapstructure:"geo"`
	Language         string   `mapstructure:"hl"`
	TZOffset         int      `mapstructure:"tz"`
	Retries          int      `mapstructure:"retries"`
	Timeout          string   `mapstructure:"timeout"`
	CacheBackend     string   `mapstructure:"cache-backend"`
	CacheDBConnect   string   `mapstructure:"cache-db-connect"`
	CacheTTL         string   `mapstructure:"cache-ttl"`
	HistoryBackend   string   `mapstructure:"history-backend"`
	HistoryDBConnect string   `mapstructure:"history-db-connect"`
	LogLevel         string   `mapstructure:"log-level"`
	LogFormat        string   `mapstructure:"log-format"`

	// --- Fields from analyzeCmd.Flags() ---
	OutputDir      string  `mapstructure:"output-dir"`
	MaxBkps        int     `mapstructure:"max-bkps"`
	StddevWeight   float64 `mapstructure:"stddev-weight"`
	LengthFactor   float64 `mapstructure:"length-factor"`
	ConstantFactor float64 `mapstructure:"constant-factor"`
	Cost           string  `mapstructure:"cost"`
	Jump           int     `mapstructure:"jump"`
	MinSize        int     `mapstructure:"min-size"`
	SkipCharts     bool    `mapstructure:"skip-charts"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Topics = slices.Clone(c.Topics)
	return &clone
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTopics(cfg, input); err != nil {
		return err
	}
	if err := processTimeframe(cfg, input.Timeframe); err != nil {
		return err
	}
	if err := processSelection(cfg, input); err != nil {
		return err
	}
	if err := processSource(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseDatabaseBackend normalizes and validates a backend name. An empty
// name means the store is disabled.
func ParseDatabaseBackend(raw string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(raw)))
	if backend == "" {
		return schema.NoneBackend, nil
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", raw)
	}
	return backend, nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	backend, err := ParseDatabaseBackend(input.CacheBackend)
	if err != nil {
		return fmt.Errorf("cache-backend: %w", err)
	}
	cfg.CacheBackend = backend
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	cfg.CacheTTL = schema.DefaultCacheTTL
	if input.CacheTTL != "" {
		ttl, err := ParseDuration(input.CacheTTL)
		if err != nil {
			return fmt.Errorf("invalid cache-ttl: %w", err)
		}
		cfg.CacheTTL = ttl
	}

	// --- History Backend Validation ---
	backend, err = ParseDatabaseBackend(input.HistoryBackend)
	if err != nil {
		return fmt.Errorf("history-backend: %w", err)
	}
	cfg.HistoryBackend = backend
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Cache and history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.HistoryBackend == schema.SQLiteBackend {
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		historyPath := cfg.HistoryDBConnect
		if historyPath == "" {
			historyPath = GetHistoryDBFilePath()
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different SQLite database files. Both resolve to %q", cachePath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates the presentation and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.SkipCharts = input.SkipCharts
	cfg.LogFormat = strings.ToLower(input.LogFormat)
	cfg.LogLevel = strings.ToLower(input.LogLevel)

	cfg.UseColors = true
	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	switch cfg.LogFormat {
	case "", ConsoleLogFormat, JSONLogFormat:
	default:
		return fmt.Errorf("invalid log format '%s'. must be console, json", input.LogFormat)
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	cfg.OutputDir = strings.TrimSpace(input.OutputDir)
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}
	return nil
}

// processTopics resolves the topic list. Positional arguments win over the
// configured list, which wins over the defaults.
func processTopics(cfg *Config, input *ConfigRawInput) error {
	raw := input.TopicArgs
	if len(raw) == 0 {
		raw = input.Topics
	}
	if len(raw) == 0 {
		raw = DefaultTopics
	}

	cfg.Topics = nil
	seen := make(map[string]struct{})
	for _, item := range raw {
		// Env vars and config files may carry a single comma-separated value
		for part := range strings.SplitSeq(item, ",") {
			topic := strings.TrimSpace(part)
			if topic == "" {
				continue
			}
			if _, dup := seen[topic]; dup {
				continue
			}
			seen[topic] = struct{}{}
			cfg.Topics = append(cfg.Topics, topic)
		}
	}

	if len(cfg.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	return nil
}

// processTimeframe validates an absolute "YYYY-MM-DD YYYY-MM-DD" window or
// one of the relative windows understood by Google Trends.
func processTimeframe(cfg *Config, raw string) error {
	tf := strings.Join(strings.Fields(raw), " ")
	if tf == "" {
		tf = DefaultTimeframe
	}
	cfg.Timeframe = tf
	cfg.StartDate, cfg.EndDate = time.Time{}, time.Time{}

	if relativeTimeframe.MatchString(tf) {
		return nil
	}

	start, end, err := ParseTimeframe(tf)
	if err != nil {
		return err
	}
	cfg.StartDate = start
	cfg.EndDate = end
	return nil
}

// RevalidateTimeframe applies a timeframe override to an already validated
// config, as the MCP tools do per request.
func RevalidateTimeframe(cfg *Config, raw string) error {
	return processTimeframe(cfg, raw)
}

// ParseTimeframe parses an absolute "YYYY-MM-DD YYYY-MM-DD" window.
func ParseTimeframe(tf string) (time.Time, time.Time, error) {
	parts := strings.Fields(tf)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid timeframe '%s'. expected 'YYYY-MM-DD YYYY-MM-DD'", tf)
	}
	start, err := time.Parse(schema.DateFormat, parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid timeframe start '%s': %w", parts[0], err)
	}
	end, err := time.Parse(schema.DateFormat, parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid timeframe end '%s': %w", parts[1], err)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("timeframe start (%s) cannot be after end (%s)", parts[0], parts[1])
	}
	return start, end, nil
}

// processSelection validates the change-point selection parameters.
func processSelection(cfg *Config, input *ConfigRawInput) error {
	if input.MaxBkps < 1 || input.MaxBkps > MaxMaxBkps {
		return fmt.Errorf("max-bkps must be between 1 and %d (received %d)", MaxMaxBkps, input.MaxBkps)
	}
	cfg.MaxBkps = input.MaxBkps

	if input.StddevWeight < 0 {
		return fmt.Errorf("stddev-weight cannot be negative (received %g)", input.StddevWeight)
	}
	if input.LengthFactor < 0 {
		return fmt.Errorf("length-factor cannot be negative (received %g)", input.LengthFactor)
	}
	if input.ConstantFactor < 0 {
		return fmt.Errorf("constant-factor cannot be negative (received %g)", input.ConstantFactor)
	}
	cfg.StddevWeight = input.StddevWeight
	cfg.LengthFactor = input.LengthFactor
	cfg.ConstantFactor = input.ConstantFactor

	cfg.Cost = schema.CostModel(strings.ToLower(input.Cost))
	if cfg.Cost == "" {
		cfg.Cost = schema.LinearCost
	}
	if _, ok := schema.ValidCostModels[cfg.Cost]; !ok {
		return fmt.Errorf("invalid cost model '%s'. must be linear, l2", input.Cost)
	}

	if input.Jump < 1 {
		return fmt.Errorf("jump must be at least 1 (received %d)", input.Jump)
	}
	if input.MinSize < 1 {
		return fmt.Errorf("min-size must be at least 1 (received %d)", input.MinSize)
	}
	cfg.Jump = input.Jump
	cfg.MinSize = input.MinSize
	return nil
}

// processSource validates where series come from and how they are fetched.
func processSource(cfg *Config, input *ConfigRawInput) error {
	cfg.Source = schema.SourceKind(strings.ToLower(input.Source))
	if cfg.Source == "" {
		cfg.Source = schema.TrendsSource
	}
	if _, ok := schema.ValidSourceKinds[cfg.Source]; !ok {
		return fmt.Errorf("invalid source '%s'. must be trends, file", input.Source)
	}
	cfg.InputDir = strings.TrimSpace(input.InputDir)
	if cfg.Source == schema.FileSource && cfg.InputDir == "" {
		return fmt.Errorf("--input-dir is required when using the file source")
	}

	cfg.Geo = strings.ToUpper(strings.TrimSpace(input.Geo))
	cfg.Language = input.Language
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	cfg.TZOffset = input.TZOffset

	if input.Retries < 0 || input.Retries > MaxRetries {
		return fmt.Errorf("retries must be between 0 and %d (received %d)", MaxRetries, input.Retries)
	}
	cfg.Retries = input.Retries

	cfg.Timeout = DefaultHTTPTimeout
	if input.Timeout != "" {
		timeout, err := ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
		cfg.Timeout = timeout
	}
	return nil
}

// ParseDuration accepts Go durations plus a whole-day suffix such as "7d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid day count '%s'", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration cannot be negative: %s", s)
	}
	return d, nil
}
