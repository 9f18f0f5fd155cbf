package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/hockeystick/core"
	"github.com/huangsam/hockeystick/internal/contract"
)

// analyzeCmd runs change-point analysis for every topic.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [topics...]",
	Short: "Find slope changes in topic interest and plot them.",
	Long: `Fetch interest over time for each topic, select breakpoints with binary
segmentation, fit a regression line to every segment and write the charts.

For each topic with data a <topic>_change_point_analysis.png is written to
--output-dir, followed by one composite_interest_analysis.png for all topics.
Topics Google Trends has no data for are skipped with a warning.

The number of breakpoints is the count in [1, --max-bkps] that minimizes the
summed segment AIC plus a penalty per breakpoint of
stddev * stddev-weight * length^length-factor * constant-factor.

Examples:
  # Analyze the default topics over 2007-2023
  hockeystick analyze

  # Analyze your own topics
  hockeystick analyze Zoom Slack --timeframe "2015-01-01 2023-01-01"

  # Analyze series saved earlier by 'fetch' without network access
  hockeystick analyze --source file --input-dir data

  # Export the fitted segments to CSV
  hockeystick analyze --output csv --output-file segments.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run change point analysis", err)
		}
	},
}
