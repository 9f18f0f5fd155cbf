package cmd

import (
	"github.com/spf13/cobra"

	"github.com/huangsam/hockeystick/core"
	"github.com/huangsam/hockeystick/internal/contract"
)

// fetchCmd downloads raw series without analyzing them.
var fetchCmd = &cobra.Command{
	Use:   "fetch [topics...]",
	Short: "Download interest over time for each topic.",
	Long: `Fetch interest over time from Google Trends and store each series as
<topic>.json in --output-dir, then print a summary per topic.

Stored series can be analyzed later with --source file --input-dir <dir>.

Examples:
  # Save the default topics into ./data
  hockeystick fetch --output-dir data

  # Export every point to Parquet
  hockeystick fetch Uber Lyft --output parquet --output-file points.parquet`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteFetch(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot fetch topics", err)
		}
	},
}
