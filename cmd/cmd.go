// Package cmd defines the command-line interface for hockeystick.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/hockeystick/internal/contract"
	"github.com/huangsam/hockeystick/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringSlice("topics", contract.DefaultTopics, "Comma-separated list of topics (positional arguments take precedence)")
	rootCmd.PersistentFlags().String("timeframe", contract.DefaultTimeframe, "Window as 'YYYY-MM-DD YYYY-MM-DD' or a relative window like 'today 5-y'")
	rootCmd.PersistentFlags().String("output-dir", contract.DefaultOutputDir, "Directory for charts and fetched series")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("source", string(schema.TrendsSource), "Series source: trends or file")
	rootCmd.PersistentFlags().String("input-dir", "", "Directory of series written by 'fetch' (used with --source file)")
	rootCmd.PersistentFlags().String("geo", "", "Google Trends region code (empty = worldwide)")
	rootCmd.PersistentFlags().String("hl", contract.DefaultLanguage, "Google Trends host language")
	rootCmd.PersistentFlags().Int("tz", contract.DefaultTZOffset, "Google Trends timezone offset in minutes")
	rootCmd.PersistentFlags().Int("retries", 0, "Retries for failed Google Trends requests")
	rootCmd.PersistentFlags().String("timeout", contract.DefaultHTTPTimeout.String(), "Timeout for each Google Trends request")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.NoneBackend), "Fetch cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-ttl", "7d", "How long a cached series stays fresh")
	rootCmd.PersistentFlags().String("history-backend", string(schema.NoneBackend), "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: trace, debug, info, warn, error or disabled")
	rootCmd.PersistentFlags().String("log-format", contract.ConsoleLogFormat, "Log format: console or json")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of analyzeCmd to Viper
	analyzeCmd.Flags().Int("max-bkps", contract.DefaultMaxBkps, "Maximum number of breakpoints to consider")
	analyzeCmd.Flags().Float64("stddev-weight", contract.DefaultStddevWeight, "Penalty weight on the series standard deviation")
	analyzeCmd.Flags().Float64("length-factor", contract.DefaultLengthFactor, "Penalty exponent on the series length")
	analyzeCmd.Flags().Float64("constant-factor", contract.DefaultConstantFactor, "Penalty multiplier")
	analyzeCmd.Flags().String("cost", string(schema.LinearCost), "Segment cost model: linear or l2")
	analyzeCmd.Flags().Int("jump", contract.DefaultJump, "Candidate breakpoint stride")
	analyzeCmd.Flags().Int("min-size", contract.DefaultMinSize, "Minimum segment length")
	analyzeCmd.Flags().Bool("skip-charts", false, "Do not write PNG charts")
	if err := viper.BindPFlags(analyzeCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analyze flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}
